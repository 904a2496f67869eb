package main

import (
	"fmt"
	"os"
	"strings"
)

func cmdRegister(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: freq register <email> <password> [name]")
		os.Exit(2)
	}
	name := ""
	if len(args) > 2 {
		name = strings.Join(args[2:], " ")
	}

	c := newClient()
	ctx, cancel := requestContext()
	defer cancel()

	user, err := c.Register(ctx, args[0], args[1], name)
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Registered %s (%s)\n", user.Name, user.Email)
}

func cmdLogin(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: freq login <email> <password>")
		os.Exit(2)
	}

	c := newClient()
	ctx, cancel := requestContext()
	defer cancel()

	user, err := c.Login(ctx, args[0], args[1])
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Signed in as %s (%s)\n", user.Name, user.Email)
}

func cmdToken(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: freq token <jwt>")
		os.Exit(2)
	}
	// Accept the whole redirect URL or fragment as pasted from the browser.
	token := args[0]
	if i := strings.Index(token, "token="); i >= 0 {
		token = token[i+len("token="):]
	}

	c := newClient()
	ctx, cancel := requestContext()
	defer cancel()

	user, err := c.UseToken(ctx, token)
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Signed in as %s (%s)\n", user.Name, user.Email)
}

func cmdLogout() {
	c := newClient()
	if err := c.Logout(); err != nil {
		fatalf("%v", err)
	}
	fmt.Println("Signed out.")
}

func cmdWhoami() {
	c := newClient()
	requireSession(c)

	ctx, cancel := requestContext()
	defer cancel()

	user, err := c.Me(ctx)
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("%s <%s>\n", user.Name, user.Email)
	fmt.Printf("id: %s\n", user.ID)
}
