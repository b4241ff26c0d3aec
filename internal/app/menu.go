package app

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/palydovai/stotis/internal/plan"
	"github.com/palydovai/stotis/internal/replan"
)

// menuWindow is how long startup waits for the operator before continuing
// unattended.
const menuWindow = 30 * time.Second

// runMenu offers a console editor for the planning set at startup. If
// nothing is typed within menuWindow the daemon proceeds; any input opens
// an interactive loop that blocks until the operator quits.
func (a *App) runMenu(ctx context.Context) {
	fmt.Printf("Press ENTER within %s to edit the satellite list...\n", menuWindow)

	// A read on os.Stdin cannot be interrupted, so once the window closes
	// this goroutine stays parked in Scan until the process exits. It holds
	// nothing but the channel and sends are guarded by ctx.Done.
	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-ctx.Done():
				return
			}
		}
		close(lines)
	}()

	select {
	case <-ctx.Done():
		return
	case <-time.After(menuWindow):
		fmt.Println("No input, continuing.")
		return
	case _, ok := <-lines:
		if !ok {
			return
		}
	}

	listPath := filepath.Join(a.base, replan.ListFile)
	for {
		names, err := plan.LoadNames(listPath)
		if err != nil {
			a.log.Printf("menu: read planning set: %v", err)
			return
		}
		catalog, err := a.tleStore.Names()
		if err != nil {
			a.log.Printf("menu: read catalog: %v", err)
			return
		}

		fmt.Println("\nTracked satellites:")
		if len(names) == 0 {
			fmt.Println("  (none)")
		}
		for i, n := range names {
			fmt.Printf("  %2d. %s\n", i+1, n)
		}
		fmt.Printf("Catalog has %d entries. Commands: a NAME (add), r N (remove by number), l [FILTER] (list catalog), q (quit menu)\n> ", len(catalog))

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return
		case line, ok = <-lines:
			if !ok {
				return
			}
		}

		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		switch cmd {
		case "q", "":
			return
		case "l":
			shown := 0
			for _, n := range catalog {
				if arg != "" && !strings.Contains(strings.ToLower(n), strings.ToLower(arg)) {
					continue
				}
				fmt.Println("  " + n)
				shown++
				if shown == 40 {
					fmt.Println("  ...")
					break
				}
			}
		case "a":
			if arg == "" {
				fmt.Println("usage: a NAME")
				continue
			}
			if _, _, err := a.tleStore.Get(arg); err != nil {
				fmt.Printf("%q is not in the catalog\n", arg)
				continue
			}
			names = appendUnique(names, arg)
			if err := plan.SaveNames(listPath, names); err != nil {
				a.log.Printf("menu: save planning set: %v", err)
			}
		case "r":
			i, err := strconv.Atoi(arg)
			if err != nil || i < 1 || i > len(names) {
				fmt.Println("usage: r N")
				continue
			}
			names = append(names[:i-1], names[i:]...)
			if err := plan.SaveNames(listPath, names); err != nil {
				a.log.Printf("menu: save planning set: %v", err)
			}
		default:
			fmt.Println("unknown command")
		}
	}
}

func appendUnique(names []string, name string) []string {
	for _, have := range names {
		if have == name {
			return names
		}
	}
	return append(names, name)
}
