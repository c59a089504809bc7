package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/task-manager-demo/modules/api"
	"github.com/example/task-manager-demo/modules/auth"
	"github.com/example/task-manager-demo/modules/tasks"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Task Manager API ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Register modules with the framework
	// Order: independent modules first, then dependent modules
	app.Register(auth.NewModule())  // Independent module (users, tokens, password reset)
	app.Register(tasks.NewModule()) // Independent module (task store + listing)
	app.Register(api.NewModule())   // Depends on auth and tasks modules

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("REST API Endpoints (http://localhost:3000):")
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /users                    - Register a new user")
	log.Println("  POST   /login                    - Login and get tokens (rate limited)")
	log.Println("  POST   /refresh                  - Refresh access token")
	log.Println("  POST   /password-reset/request   - Request a reset link (rate limited)")
	log.Println("  POST   /password-reset/confirm   - Confirm reset with token")
	log.Println("  GET    /health                   - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  POST   /tasks                    - Create a task")
	log.Println("  GET    /tasks                    - List tasks (filter/sort/paginate)")
	log.Println("  GET    /tasks/:id                - Get a task")
	log.Println("  PUT    /tasks/:id                - Replace a task")
	log.Println("  DELETE /tasks/:id                - Delete a task")
	log.Println("")
	log.Println("  Admin Endpoints:")
	log.Println("  GET    /admin/users              - List all users")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
