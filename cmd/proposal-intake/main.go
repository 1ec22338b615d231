package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/proposalflow/internal/services"
)

var (
	intakeInstance *services.IntakeFunction
	once           sync.Once
	initErr        error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the CloudEvent function. The framework routes GCS
	// object-finalized events here.
	functions.CloudEvent("HandleProposalUpload", handleProposalUpload)
}

// main is required by the Go Functions Framework.
func main() {}

// handleProposalUpload is the Cloud Function entry point for new uploads.
func handleProposalUpload(ctx context.Context, e cloudevents.Event) error {
	// Use sync.Once for robust, one-time initialization of clients.
	once.Do(func() {
		intakeInstance, initErr = services.NewIntake(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent services.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	// Delegate to the business logic; errors are already logged with
	// context inside Process, and returning one fails the invocation.
	return intakeInstance.Process(ctx, gcsEvent)
}
