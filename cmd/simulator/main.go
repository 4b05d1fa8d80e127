package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/neuraforge/collab-gateway/internal/websocket"
	flag "github.com/spf13/pflag"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:3001"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "full":
		fullCmd(apiURL, args)
	case "watch":
		watchCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Collaboration Simulator - Development tool for exercising research rooms

USAGE:
  simulator <command> [options]

COMMANDS:
  full      Register fake collaborators, join a research room and stream cursor moves
  watch     Log in and print every event in a research room until interrupted
  help      Show this help message

ENVIRONMENT:
  API_URL   Gateway URL (default: http://localhost:3001)

EXAMPLES:
  # Five collaborators moving cursors in proj-1 for 10 seconds
  simulator full --research=proj-1 --count=5

  # Watch proj-1 as the demo user while "full" runs in another terminal
  simulator watch --research=proj-1`)
}

func fullCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("full", flag.ExitOnError)
	researchID := fs.String("research", "proj-1", "Research room to join")
	count := fs.Int("count", 3, "Number of fake collaborators")
	duration := fs.Duration("duration", 10*time.Second, "How long to stream cursor moves")
	interval := fs.Duration("interval", 250*time.Millisecond, "Delay between cursor moves per collaborator")
	fs.Parse(args)

	if *count < 2 {
		fmt.Println("Error: --count must be at least 2")
		os.Exit(1)
	}
	if *interval <= 0 {
		fmt.Println("Error: --interval must be positive")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	fmt.Println("=== Collaboration Simulator: Full Flow ===")
	fmt.Println()
	fmt.Printf("Connecting %d collaborators to %s:\n", *count, *researchID)

	var collaborators []*Collaborator
	var tokens []string
	for i := 0; i < *count; i++ {
		auth, err := client.RegisterUser(fmt.Sprintf("Researcher%d", i+1))
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to create user: %v\n", i+1, *count, err)
			os.Exit(1)
		}

		c, err := Connect(client.WebSocketURL(auth.AccessToken), auth.User.Name, nil)
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to connect: %v\n", i+1, *count, err)
			os.Exit(1)
		}
		if err := c.Join(*researchID); err != nil {
			fmt.Printf("  [%d/%d] FAILED to join: %v\n", i+1, *count, err)
			os.Exit(1)
		}

		collaborators = append(collaborators, c)
		tokens = append(tokens, auth.AccessToken)
		fmt.Printf("  [%d/%d] %s joined\n", i+1, *count, auth.User.Name)
	}

	fmt.Println()
	fmt.Printf("Streaming cursor moves for %s... ", *duration)

	var sent sync.WaitGroup
	stop := time.After(*duration)
	done := make(chan struct{})
	for i, c := range collaborators {
		sent.Add(1)
		go func(i int, c *Collaborator) {
			defer sent.Done()
			ticker := time.NewTicker(*interval)
			defer ticker.Stop()

			step := 0
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					step++
					if err := c.MoveCursor(*researchID, (i*100+step)%1000, step%600); err != nil {
						return
					}
				}
			}
		}(i, c)
	}

	<-stop
	close(done)
	sent.Wait()

	if err := collaborators[0].Update(*researchID, map[string]interface{}{
		"title":  "Simulated draft",
		"status": "in-review",
	}); err != nil {
		fmt.Printf("Warning: research update failed: %v\n", err)
	}
	time.Sleep(500 * time.Millisecond)
	fmt.Println("OK")

	// Print summary
	fmt.Println()
	fmt.Println("=========================================")
	fmt.Println("  SIMULATION COMPLETE")
	fmt.Println("=========================================")
	fmt.Println()
	for _, c := range collaborators {
		fmt.Printf("  %-24s cursor-update=%d research-updated=%d user-joined=%d\n",
			c.Name,
			c.Received(websocket.MessageTypeCursorUpdate),
			c.Received(websocket.MessageTypeResearchUpdated),
			c.Received(websocket.MessageTypeUserJoined),
		)
	}
	fmt.Println()

	for i, c := range collaborators {
		c.Close()
		if err := client.Logout(tokens[i]); err != nil {
			fmt.Printf("Warning: logout failed for %s: %v\n", c.Name, err)
		}
	}
}

func watchCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	researchID := fs.String("research", "proj-1", "Research room to watch")
	email := fs.String("email", "demo@neuraforge.dev", "Account email")
	password := fs.String("password", "demo123", "Account password")
	fs.Parse(args)

	client := NewAPIClient(apiURL)

	auth, err := client.Login(*email, *password)
	if err != nil {
		fmt.Printf("Failed to log in: %v\n", err)
		os.Exit(1)
	}

	c, err := Connect(client.WebSocketURL(auth.AccessToken), auth.User.Name, func(_ string, msg *websocket.Message) {
		fmt.Printf("%s  %-18s %s\n", time.UnixMilli(msg.Timestamp).Format("15:04:05.000"), msg.Type, string(msg.Payload))
	})
	if err != nil {
		fmt.Printf("Failed to connect: %v\n", err)
		os.Exit(1)
	}
	if err := c.Join(*researchID); err != nil {
		fmt.Printf("Failed to join %s: %v\n", *researchID, err)
		os.Exit(1)
	}

	fmt.Printf("Watching %s as %s (Ctrl-C to stop)\n\n", *researchID, auth.User.Name)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-c.done:
		fmt.Println("Connection closed by server")
	}

	c.Leave(*researchID)
	c.Close()
	client.Logout(auth.AccessToken)
}
