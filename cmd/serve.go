/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	"github.com/valpere/lexbridge/internal/engine"
)

var servePort int

// translateRequest is the JSON body for POST /translate.
type translateRequest struct {
	Text              string            `json:"text" validate:"required"`
	Source            string            `json:"source" validate:"required"`
	Target            string            `json:"target" validate:"required"`
	SessionID         string            `json:"session_id,omitempty"`
	DebugMode         bool              `json:"debug_mode,omitempty"`
	QualityMode       bool              `json:"quality_mode,omitempty"`
	ForceTranslations map[string]string `json:"force_translations,omitempty"`
	ExcludedWords     []string          `json:"excluded_words,omitempty"`
}

// errorResponse is the standardized error body for every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local HTTP server exposing the translation engine",
	Long: `Run an HTTP server fronting the engine for callers that would rather
speak JSON over a socket than shell out to "lexbridge translate" per call.
The engine is initialized once at startup and shared across requests; there
is no network call beyond the local listener itself.

Routes:
  GET  /healthz            liveness probe
  GET  /metrics            engine.Metrics as JSON
  POST /translate          translate one request, returns a TranslationResult`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Dispose()

		app := fiber.New(fiber.Config{
			AppName:      "lexbridge",
			ErrorHandler: serveErrorHandler,
		})

		app.Get("/healthz", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok"})
		})

		app.Get("/metrics", func(c *fiber.Ctx) error {
			return c.JSON(eng.GetMetrics())
		})

		app.Post("/translate", func(c *fiber.Ctx) error { return handleTranslate(c, eng) })

		addr := fmt.Sprintf(":%d", servePort)
		fmt.Printf("lexbridge serving on %s\n", addr)
		return app.Listen(addr)
	},
}

func handleTranslate(c *fiber.Ctx, eng *engine.Engine) error {
	var req translateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body: " + err.Error()})
	}
	if req.Text == "" || req.Source == "" || req.Target == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "text, source and target are all required"})
	}

	source := req.Source
	if source == "auto" {
		detected, ok := eng.DetectLanguage(req.Text)
		if !ok {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(errorResponse{Error: "could not auto-detect source language"})
		}
		source = detected
	}

	opts := &engine.TranslateOptions{
		SessionID:         req.SessionID,
		DebugMode:         req.DebugMode,
		QualityMode:       req.QualityMode,
		ForceTranslations: req.ForceTranslations,
		ExcludedWords:     req.ExcludedWords,
	}

	result, err := eng.Translate(c.Context(), req.Text, source, req.Target, opts)
	if err != nil {
		return serveErrorHandler(c, err)
	}
	return c.JSON(result)
}

// serveErrorHandler maps an engine.Error's Kind to an HTTP status the same
// way cmd.Execute maps it to a process exit code via engine.ExitCode.
func serveErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch engine.ExitCode(err) {
	case engine.ExitUsage:
		status = fiber.StatusBadRequest
	case engine.ExitDataFormat:
		status = fiber.StatusUnprocessableEntity
	case engine.ExitNoInput:
		status = fiber.StatusNotFound
	}
	return c.Status(status).JSON(errorResponse{Error: err.Error()})
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on")
}
