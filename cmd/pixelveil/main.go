package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Roelanb/pixelveil/internal/client"
	"github.com/Roelanb/pixelveil/internal/controller"
	"github.com/Roelanb/pixelveil/internal/download"
)

const (
	defaultServer = "http://127.0.0.1:8080"
	serverEnv     = "PIXELVEIL_SERVER"
	qrFileName    = "share_qr.png"
)

type globalOpts struct {
	server   string
	origin   string
	timeout  time.Duration
	out      string
	conflict string
	verbose  bool
}

// app wires a controller to terminal implementations of its ports.
type app struct {
	ctrl *controller.Controller
	view *terminalView
	dl   fileDownloader
}

func (g *globalOpts) serverURL() string {
	if g.server != "" {
		return g.server
	}
	if v := os.Getenv(serverEnv); v != "" {
		return v
	}
	return defaultServer
}

func (g *globalOpts) newApp(out io.Writer) *app {
	api := client.New(g.serverURL(), client.WithTimeout(g.timeout))
	view := newTerminalView(out)
	dl := fileDownloader{
		opts: download.Options{Dir: g.out, Conflict: download.ConflictStrategy(g.conflict)},
		out:  out,
	}
	origin := g.origin
	if origin == "" {
		origin = api.BaseURL()
	}
	ctrl := controller.New(controller.Deps{
		API:        api,
		View:       view,
		Downloader: dl,
		Opener:     browserOpener{},
		Log:        g.logger(),
	}, controller.Options{Origin: origin})
	ctrl.Init()
	return &app{ctrl: ctrl, view: view, dl: dl}
}

// logger writes human-readable diagnostics to stderr; warnings only unless
// --verbose is set.
func (g *globalOpts) logger() *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	if !g.verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Sugar()
}

func readImage(path string) ([]client.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return []client.Image{{Name: filepath.Base(path), Data: data}}, nil
}

// encode runs the encode flow and reports the status shown on failure.
func (a *app) encode(ctx context.Context, path, message, password string) error {
	files, err := readImage(path)
	if err != nil {
		return err
	}
	a.ctrl.Change(ctx, controller.ZoneEncode, files)
	a.ctrl.SetMessage(message)
	a.ctrl.SetPassword(controller.ZoneEncode, password)
	a.ctrl.Encode(ctx)
	if err := a.view.err(controller.RegionEncode); err != nil {
		return err
	}
	if !a.ctrl.State().HasEncoded {
		return errors.New("encoding did not complete")
	}
	return nil
}

func newRootCmd(out io.Writer) *cobra.Command {
	g := &globalOpts{}
	root := &cobra.Command{
		Use:           "pixelveil",
		Short:         "Hide and reveal text messages in images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional
			_ = godotenv.Load()
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.server, "server", "", "pixelveil server URL (default $"+serverEnv+" or "+defaultServer+")")
	pf.StringVar(&g.origin, "origin", "", "public address used in share texts (default the server URL)")
	pf.DurationVar(&g.timeout, "timeout", 0, "per-request timeout (0 = none)")
	pf.StringVar(&g.out, "out", ".", "directory for downloaded files")
	pf.StringVar(&g.conflict, "conflict", string(download.ConflictRename), "on existing file: rename|overwrite|skip")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newCapacityCmd(g, out),
		newEncodeCmd(g, out),
		newDecodeCmd(g, out),
		newShareCmd(g, out),
	)
	return root
}

func newCapacityCmd(g *globalOpts, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "capacity <image>",
		Short: "Show how many characters an image can hide",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readImage(args[0])
			if err != nil {
				return err
			}
			n, err := client.New(g.serverURL(), client.WithTimeout(g.timeout)).Capacity(cmd.Context(), files[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s can hide %d characters\n", files[0].Name, n)
			return nil
		},
	}
}

func newEncodeCmd(g *globalOpts, out io.Writer) *cobra.Command {
	var message, password string
	cmd := &cobra.Command{
		Use:   "encode <image>",
		Short: "Hide a message and save the encoded PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := g.newApp(out)
			defer a.ctrl.Close()
			return a.encode(cmd.Context(), args[0], message, password)
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "message to hide")
	cmd.Flags().StringVarP(&password, "password", "p", "", "optional password")
	return cmd
}

func newDecodeCmd(g *globalOpts, out io.Writer) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "decode <image>",
		Short: "Reveal the message hidden in an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readImage(args[0])
			if err != nil {
				return err
			}
			a := g.newApp(out)
			defer a.ctrl.Close()
			a.ctrl.SelectTab(controller.TabDecode)
			a.ctrl.Change(cmd.Context(), controller.ZoneDecode, files)
			a.ctrl.SetPassword(controller.ZoneDecode, password)
			a.ctrl.Decode(cmd.Context())
			return a.view.err(controller.RegionDecode)
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password, if the message is sealed")
	return cmd
}

func newShareCmd(g *globalOpts, out io.Writer) *cobra.Command {
	var message, password string
	cmd := &cobra.Command{
		Use:       "share qr|email|whatsapp <image>",
		Short:     "Encode an image, then share it",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"qr", "email", "whatsapp"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]
			switch target {
			case "qr", "email", "whatsapp":
			default:
				return fmt.Errorf("unknown share target %q", target)
			}
			a := g.newApp(out)
			defer a.ctrl.Close()
			if err := a.encode(cmd.Context(), args[1], message, password); err != nil {
				return err
			}

			switch target {
			case "qr":
				a.ctrl.GenerateQR(cmd.Context())
				if err := a.view.err(controller.RegionShare); err != nil {
					return err
				}
				png, err := decodeDataURI(a.view.qrCode())
				if err != nil {
					return err
				}
				return a.dl.Download(qrFileName, png)
			case "email":
				a.ctrl.ShareEmail()
			case "whatsapp":
				a.ctrl.ShareWhatsApp()
			}
			return a.view.err(controller.RegionShare)
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "message to hide")
	cmd.Flags().StringVarP(&password, "password", "p", "", "optional password")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
