package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"picpath/internal/picpath"
)

const browseHelp = `Type text to search by name. Commands:
  :c CATEGORY  switch category (All, Screenshots, Camera, Downloads, Other)
  :s ID        toggle selection of an image
  :m           enter selection mode
  :x           clear the selection
  :p           print selected paths
  :r           rescan the volumes
  :h           show this help
  :q           quit
`

// browsePageSize is how many images are printed per result list.
const browsePageSize = 20

// browseSession drives a Controller from lines of input.
type browseSession struct {
	c           *picpath.Controller
	interactive bool

	mu  sync.Mutex // guards out
	out io.Writer
}

func newBrowseSession(c *picpath.Controller, out io.Writer, interactive bool) *browseSession {
	return &browseSession{c: c, out: out, interactive: interactive}
}

func (s *browseSession) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

// run reads commands from in until EOF, ":q" or ctx is done. Result lists
// are printed whenever the controller publishes one.
func (s *browseSession) run(ctx context.Context, in io.Reader) error {
	images, unsubscribe := s.c.SubscribeImages()

	printerDone := make(chan struct{})
	go func() {
		defer close(printerDone)
		for list := range images {
			s.mu.Lock()
			fmt.Fprintf(s.out, "-- %s %q: %d image(s)\n",
				s.c.SelectedCategory().Get(), s.c.SearchQuery().Get(), len(list))
			printImages(s.out, list, browsePageSize)
			s.mu.Unlock()
		}
	}()
	defer func() {
		unsubscribe()
		<-printerDone
	}()

	if s.interactive {
		s.printf("%s", browseHelp)
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line := <-lines:
			quit, err := s.handle(ctx, line)
			if err != nil {
				s.printf("error: %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// handle executes one input line and reports whether the session should end.
func (s *browseSession) handle(ctx context.Context, line string) (bool, error) {
	if !strings.HasPrefix(line, ":") {
		s.c.SetQuery(line)
		return false, nil
	}

	cmd, arg, _ := strings.Cut(strings.TrimSpace(line[1:]), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "q":
		return true, nil
	case "h":
		s.printf("%s", browseHelp)
	case "c":
		category, err := picpath.ParseCategory(arg)
		if err != nil {
			return false, err
		}
		return false, s.c.SelectCategory(category)
	case "s":
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return false, fmt.Errorf("invalid image id %q", arg)
		}
		s.c.ToggleSelection(id)
		s.printf("selected: %v\n", s.c.SelectedIDs().Get())
	case "m":
		s.c.SetSelectionMode(true)
		s.printf("selection mode on\n")
	case "x":
		s.c.ClearSelection()
		s.printf("selection cleared\n")
	case "p":
		paths := s.c.SelectedPaths()
		if len(paths) == 0 {
			s.printf("nothing selected\n")
		}
		for _, p := range paths {
			s.printf("%s\n", p)
		}
	case "r":
		if err := s.c.Refresh(ctx); err != nil {
			return false, err
		}
		s.printf("refreshed\n")
	default:
		return false, fmt.Errorf("unknown command %q, :h for help", ":"+cmd)
	}
	return false, nil
}
