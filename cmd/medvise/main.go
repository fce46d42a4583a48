// Command medvise is a terminal client for the MedVise chat service. It
// stands in for the mobile app: register, log in, chat (optionally attaching
// an image), log out.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"medvise.ai/server/internal/client"
)

const defaultBaseURL = "http://localhost:8080"

func main() {
	log.SetFlags(0)

	baseURL := os.Getenv("MEDVISE_API_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	tokenPath, err := client.DefaultTokenPath()
	if err != nil {
		log.Fatalf("Could not determine config directory: %v", err)
	}
	session, err := client.NewSession(tokenPath)
	if err != nil {
		log.Fatalf("Could not restore session: %v", err)
	}
	api := client.New(baseURL, session)

	ctx := context.Background()

	switch os.Args[1] {
	case "register":
		runRegister(ctx, api)
	case "login":
		runLogin(ctx, api)
	case "chat":
		runChat(ctx, api, session)
	case "logout":
		if err := api.Logout(); err != nil {
			log.Fatalf("Logout failed: %v", err)
		}
		fmt.Println("Logged out.")
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: medvise <register|login|chat|logout>")
	fmt.Fprintln(os.Stderr, "  MEDVISE_API_URL overrides the server address (default "+defaultBaseURL+")")
}

func runRegister(ctx context.Context, api *client.Client) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	fullName := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	role := fs.String("role", "user", "account role (user or admin)")
	fs.Parse(os.Args[2:])

	if *fullName == "" || *email == "" {
		log.Fatal("register requires -name and -email")
	}

	password, err := readPassword("Password: ")
	if err != nil {
		log.Fatalf("Could not read password: %v", err)
	}

	if err := api.Register(ctx, *fullName, *email, password, *role); err != nil {
		log.Fatalf("Registration failed: %v", err)
	}
	fmt.Println("Registered. You can now log in.")
}

func runLogin(ctx context.Context, api *client.Client) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	fs.Parse(os.Args[2:])

	if *email == "" {
		log.Fatal("login requires -email")
	}

	password, err := readPassword("Password: ")
	if err != nil {
		log.Fatalf("Could not read password: %v", err)
	}

	user, err := api.Login(ctx, *email, password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	fmt.Printf("Logged in as %s (%s).\n", user.FullName, user.Email)
}

// runChat is a minimal read-send-print loop over the chat controller. A line
// of the form "/image <path> [caption]" attaches an image; anything else is
// sent as text.
func runChat(ctx context.Context, api *client.Client, session *client.Session) {
	if !session.Authenticated() {
		log.Fatal("Not logged in. Run 'medvise login' first.")
	}

	controller := client.NewChatController(api, printNotifier{})
	fmt.Println("Connected. Type a message, '/image <path> [caption]' to attach, or 'exit'.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" {
			break
		}

		text, imagePath := line, ""
		if rest, ok := strings.CutPrefix(line, "/image "); ok {
			imagePath, text, _ = strings.Cut(strings.TrimSpace(rest), " ")
		}

		before := len(controller.Messages())
		controller.Send(ctx, text, imagePath)
		if len(controller.Messages()) == before {
			continue // blank input, nothing sent
		}
		controller.Wait()

		if latest := controller.Messages(); len(latest) > 0 && !latest[0].FromUser {
			fmt.Println(latest[0].Text)
		}
	}
	controller.Wait()
}

type printNotifier struct{}

func (printNotifier) Notify(title, message string) {
	fmt.Printf("[%s] %s\n", title, message)
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
