// Package api provides a local stand-in for the vendor export API, used for
// development and end-to-end testing of the pull workflow.
package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const defaultSampleCSV = `partNumber,description,price,qty
AP-1001,Drain Pump,54.99,12
AP-1002,Door Gasket,31.50,4
AP-1003,Ice Maker Assembly,112.00,0
`

// MockOptions configures the mock vendor server.
type MockOptions struct {
	Port string

	// ReadyAfter is the number of not-ready answers per date before the
	// download succeeds. Zero means ready on the first poll.
	ReadyAfter int

	// SampleCSV overrides the built-in export content.
	SampleCSV string
}

// MockServer emulates the vendor's create/download endpoints.
type MockServer struct {
	app  *fiber.App
	opts MockOptions

	mu    sync.Mutex
	polls map[string]int
}

// NewMockServer initializes the Fiber app with the vendor routes.
func NewMockServer(opts MockOptions) *MockServer {
	if opts.Port == "" {
		opts.Port = "8077"
	}
	if opts.SampleCSV == "" {
		opts.SampleCSV = defaultSampleCSV
	}

	app := fiber.New(fiber.Config{
		IdleTimeout:  10 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &MockServer{app: app, opts: opts, polls: make(map[string]int)}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	base := "/ws/rest/ReliablePartsBoomiAPI/partInventoryAndPriceFile/v1"
	app.Post(base+"/create", s.handleCreate)
	app.Post(base+"/download", s.handleDownload)

	return s
}

func (s *MockServer) handleCreate(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"errorCode":    "100",
		"errorMessage": "File generation scheduled",
	})
}

func (s *MockServer) handleDownload(c *fiber.Ctx) error {
	var body struct {
		GeneratedDate string `json:"generatedDate"`
	}
	if err := c.BodyParser(&body); err != nil || body.GeneratedDate == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"errorCode":    "400",
			"errorMessage": "generatedDate is required",
		})
	}

	s.mu.Lock()
	s.polls[body.GeneratedDate]++
	n := s.polls[body.GeneratedDate]
	s.mu.Unlock()

	if n <= s.opts.ReadyAfter {
		return c.JSON(fiber.Map{
			"errorCode":    "210",
			"errorMessage": "File generation in progress",
		})
	}

	name := fmt.Sprintf("PartInventoryPrice_%s.zip", body.GeneratedDate)
	archive, err := buildZip(fmt.Sprintf("PartInventoryPrice_%s.csv", body.GeneratedDate), s.opts.SampleCSV)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"errorCode":    "500",
			"errorMessage": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"errorCode":    "100",
		"fileName":     name,
		"fileContents": base64.StdEncoding.EncodeToString(archive),
	})
}

func buildZip(memberName, content string) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create(memberName)
	if err != nil {
		return nil, err
	}
	if _, err := f.Write([]byte(content)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GetApp exposes the underlying Fiber app for tests.
func (s *MockServer) GetApp() *fiber.App {
	return s.app
}

// Start runs the server and handles graceful shutdown on interrupt.
func (s *MockServer) Start() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	go func() {
		log.Printf("Mock vendor API is running on port %s\n", s.opts.Port)
		if err := s.app.Listen(":" + s.opts.Port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-quit
	log.Println("Received shutdown signal, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return err
	}

	log.Println("Server shutdown successfully")
	return nil
}

// Shutdown stops the server immediately.
func (s *MockServer) Shutdown() error {
	return s.app.Shutdown()
}
