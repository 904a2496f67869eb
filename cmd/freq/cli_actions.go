package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/jimdaga/frequency/internal/client"
)

func cmdActions() {
	c := newClient()
	requireSession(c)

	ctx, cancel := requestContext()
	defer cancel()

	actions, err := c.ListActions(ctx)
	if err != nil {
		fatalf("%v", err)
	}
	if len(actions) == 0 {
		fmt.Println("No actions yet. Add one with: freq add-action <name>")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tICON\tREMINDER")
	for _, a := range actions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Icon, reminderLabel(a))
	}
	w.Flush()
}

func cmdAddAction(args []string) {
	fs := flag.NewFlagSet("add-action", flag.ExitOnError)
	icon := fs.String("icon", "", "icon name")
	color := fs.String("color", "", "color class")
	remind := fs.String("remind", "", "enable a daily reminder at HH:MM")
	positional := parseInterleaved(fs, args)

	if len(positional) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: freq add-action <name> [--icon I] [--color C] [--remind HH:MM]")
		os.Exit(2)
	}

	in := client.NewAction{Name: strings.Join(positional, " ")}
	if *icon != "" {
		in.Icon = icon
	}
	if *color != "" {
		in.Color = color
	}
	if *remind != "" {
		enabled := true
		in.RemindersEnabled = &enabled
		in.ReminderTime = remind
	}

	c := newClient()
	requireSession(c)
	ctx, cancel := requestContext()
	defer cancel()

	action, err := c.CreateAction(ctx, in)
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Added %s (%s)\n", action.Name, action.ID)
}

func reminderLabel(a client.Action) string {
	if !a.RemindersEnabled || a.ReminderTime == nil {
		return "-"
	}
	return *a.ReminderTime
}

// resolveAction matches ref against action ids first, then names
// case-insensitively.
func resolveAction(actions []client.Action, ref string) (client.Action, bool) {
	for _, a := range actions {
		if a.ID == ref {
			return a, true
		}
	}
	for _, a := range actions {
		if strings.EqualFold(a.Name, ref) {
			return a, true
		}
	}
	return client.Action{}, false
}

func cmdEditAction(args []string) {
	fs := flag.NewFlagSet("edit-action", flag.ExitOnError)
	fs.String("name", "", "new name")
	fs.String("icon", "", "icon name (empty resets to the default)")
	fs.String("color", "", "color class (empty resets to the default)")
	fs.String("remind", "", "enable a daily reminder at HH:MM")
	fs.Bool("no-remind", false, "turn reminders off")
	positional := parseInterleaved(fs, args)

	fields := actionUpdateFields(fs)
	if len(positional) == 0 || len(fields) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: freq edit-action <action> [--name N] [--icon I] [--color C] [--remind HH:MM | --no-remind]")
		os.Exit(2)
	}

	c := newClient()
	requireSession(c)
	ctx, cancel := requestContext()
	defer cancel()

	action := mustResolveAction(c, strings.Join(positional, " "))
	updated, err := c.UpdateAction(ctx, action.ID, fields)
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Updated %s (icon %s, reminder %s)\n", updated.Name, updated.Icon, reminderLabel(*updated))
}

// actionUpdateFields builds a partial update from the flags the user set.
// An empty --icon or --color is sent as null, which restores the default.
func actionUpdateFields(fs *flag.FlagSet) map[string]interface{} {
	fields := map[string]interface{}{}
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "name":
			fields["name"] = v
		case "icon", "color":
			if v == "" {
				fields[f.Name] = nil
			} else {
				fields[f.Name] = v
			}
		case "remind":
			fields["remindersEnabled"] = true
			fields["reminderTime"] = v
		case "no-remind":
			if v == "true" {
				fields["remindersEnabled"] = false
			}
		}
	})
	return fields
}

func cmdRemoveAction(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: freq rm-action <action>")
		os.Exit(2)
	}

	c := newClient()
	requireSession(c)
	ctx, cancel := requestContext()
	defer cancel()

	action := mustResolveAction(c, strings.Join(args, " "))
	if err := c.DeleteAction(ctx, action.ID); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("Removed %s. Its logs are kept as quick logs.\n", action.Name)
}

func mustResolveAction(c *client.Client, ref string) client.Action {
	ctx, cancel := requestContext()
	defer cancel()

	actions, err := c.ListActions(ctx)
	if err != nil {
		fatalf("%v", err)
	}
	action, ok := resolveAction(actions, ref)
	if !ok {
		fatalf("no action matches %q", ref)
	}
	return action
}
