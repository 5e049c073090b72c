package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sessioncal/internal/capture"
	"sessioncal/internal/ics"
	appLog "sessioncal/internal/log"
	"sessioncal/internal/model"
	"sessioncal/internal/nav"
	"sessioncal/internal/persist"
	"sessioncal/internal/printview"
	"sessioncal/internal/web"
)

// writeOutput writes data to path, or to stdout when path is "-".
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := persist.WriteFileAtomic(path, data); err != nil {
		return err
	}
	appLog.Info("file written", "path", path, "bytes", len(data))
	return nil
}

func runExport(a *app, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("o", "", "Output file (default calendar-events-<date>.json, - for stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	name, data, err := a.engine.Export()
	if err != nil {
		return err
	}
	if *out == "" {
		*out = name
	}
	return writeOutput(*out, data)
}

func runICS(a *app, args []string) error {
	fs := flag.NewFlagSet("ics", flag.ContinueOnError)
	out := fs.String("o", "", "Output file (default calendar-events-<date>.ics, - for stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	now := time.Now()
	var buf bytes.Buffer
	if err := ics.Encode(&buf, a.engine.Events().All(), now); err != nil {
		return err
	}
	if *out == "" {
		*out = ics.FileName(now)
	}
	return writeOutput(*out, buf.Bytes())
}

func runImport(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "Replace the calendar without asking")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("import: expected exactly one file or URL")
	}
	src := fs.Arg(0)

	var confirm persist.Confirmer = terminalConfirm{in: os.Stdin, out: os.Stderr}
	if *yes {
		confirm = persist.AlwaysConfirm
	}

	var (
		n   int
		err error
	)
	switch {
	case ics.IsURL(src):
		body, ferr := ics.NewFetcher().Fetch(ctx, src)
		if ferr != nil {
			return ferr
		}
		n, err = importICS(ctx, a, body, confirm)
	case strings.EqualFold(filepath.Ext(src), ".ics"):
		body, rerr := os.ReadFile(src)
		if rerr != nil {
			return rerr
		}
		n, err = importICS(ctx, a, body, confirm)
	default:
		f, oerr := os.Open(src)
		if oerr != nil {
			return oerr
		}
		defer f.Close()
		n, err = a.engine.Import(ctx, f, confirm)
	}

	if errors.Is(err, persist.ErrImportDeclined) {
		fmt.Fprintln(os.Stderr, "Import cancelled; calendar unchanged.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Imported %d events.\n", n)
	return nil
}

func importICS(ctx context.Context, a *app, body []byte, c persist.Confirmer) (int, error) {
	events, err := ics.Decode(bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	return a.engine.Replace(ctx, events, c)
}

// viewFlags parses -view and -date into a navigation state.
func viewFlags(fs *flag.FlagSet, today model.Date) func() (nav.State, error) {
	view := fs.String("view", "month", "View to render: month, week or day")
	date := today
	fs.Var(&date, "date", "Reference date YYYY-MM-DD (default today)")
	return func() (nav.State, error) {
		v, err := nav.ParseView(*view)
		if err != nil {
			return nav.State{}, err
		}
		return nav.New(date).WithView(v), nil
	}
}

func runPrint(a *app, args []string) error {
	fs := flag.NewFlagSet("print", flag.ContinueOnError)
	state := viewFlags(fs, a.engine.Today())
	out := fs.String("o", "-", "Output file (- for stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	st, err := state()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := printview.Render(&buf, st, a.engine.Events()); err != nil {
		return err
	}
	return writeOutput(*out, buf.Bytes())
}

// runSnapshot captures the print view. Without -url it serves the view from
// a private loopback listener for the duration of the capture.
func runSnapshot(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	state := viewFlags(fs, a.engine.Today())
	target := fs.String("url", "", "Print view URL of a running server (default: render in-process)")
	out := fs.String("o", "calendar.png", "Output PNG file")
	width := fs.Int("width", capture.DefaultWidth, "Viewport width in px")
	height := fs.Int("height", capture.DefaultHeight, "Viewport height in px")
	user := fs.String("user", "", "Basic auth username for -url (password is prompted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	st, err := state()
	if err != nil {
		return err
	}

	opts := capture.Options{
		URL:        *target,
		OutputPath: *out,
		Width:      *width,
		Height:     *height,
		Username:   *user,
	}
	if *user != "" {
		if opts.Password, err = readPassword("Password: "); err != nil {
			return err
		}
	}

	if opts.URL == "" {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return err
		}
		srv := &http.Server{Handler: web.NewServer(a.engine, nil).Handler(), ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLog.Error("snapshot server failed", err)
			}
		}()
		defer srv.Close()

		opts.URL = fmt.Sprintf("http://%s/print?view=%s&date=%s", ln.Addr(), st.View, st.Selected)
	}

	return capture.PNG(ctx, opts)
}

