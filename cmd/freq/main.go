// Command freq is a terminal client for the Frequency API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jimdaga/frequency/internal/client"
	"github.com/joho/godotenv"
)

const defaultAPIURL = "http://localhost:3001/api"

func main() {
	godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "register":
		cmdRegister(args)
	case "login":
		cmdLogin(args)
	case "token":
		cmdToken(args)
	case "logout":
		cmdLogout()
	case "whoami":
		cmdWhoami()
	case "actions":
		cmdActions()
	case "add-action":
		cmdAddAction(args)
	case "edit-action":
		cmdEditAction(args)
	case "rm-action":
		cmdRemoveAction(args)
	case "log":
		cmdLog(args)
	case "show-log":
		cmdShowLog(args)
	case "edit-log":
		cmdEditLog(args)
	case "rm-log":
		cmdRemoveLog(args)
	case "today":
		cmdToday()
	case "calendar":
		cmdCalendar(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `freq - track how often you do things

Usage:
  freq <command> [options]

Commands:
  register <email> <password> [name]   Create an account
  login <email> <password>             Sign in
  token <jwt>                          Use a token from the Google sign-in redirect
  logout                               Forget the stored session
  whoami                               Show the signed-in user
  actions                              List your actions
  add-action <name> [--icon I] [--color C] [--remind HH:MM]
  edit-action <action> [--name N] [--icon I] [--color C] [--remind HH:MM | --no-remind]
  rm-action <action>                   Delete an action, keeping its logs
  log [action] [--note N] [--at ISO]   Log an occurrence (no action = quick log)
  show-log <log-id>                    Show one log
  edit-log <log-id> [--at ISO] [--note N | --clear-note]
  rm-log <log-id>                      Delete a log
  today                                Today's total, streak and logs
  calendar [YYYY-MM] [--action id] [--server]
                                       Month view computed from your logs

Environment:
  FREQ_API_URL   API base URL (default http://localhost:3001/api)
  FREQ_SESSION   Session file (default ~/.frequency/session.json)
`)
}

func sessionPath() string {
	if p := os.Getenv("FREQ_SESSION"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".frequency", "session.json")
}

func newClient() *client.Client {
	session, err := client.LoadSession(sessionPath())
	if err != nil {
		fatalf("%v", err)
	}
	baseURL := os.Getenv("FREQ_API_URL")
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	return client.New(baseURL, session)
}

// requireSession exits when nobody is signed in.
func requireSession(c *client.Client) {
	if c.Session().CurrentToken() == "" {
		fatalf("not signed in, run: freq login <email> <password>")
	}
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// parseInterleaved parses flags that may appear before or after positional
// arguments and returns the positionals.
func parseInterleaved(fs *flag.FlagSet, args []string) []string {
	var positional []string
	for {
		fs.Parse(args)
		args = fs.Args()
		if len(args) == 0 {
			return positional
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func fatalf(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", a...)
	os.Exit(1)
}
