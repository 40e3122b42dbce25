package main

import (
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "image/gif"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lutforge/lutforge/internal/adjust"
	"github.com/lutforge/lutforge/internal/apply"
	"github.com/lutforge/lutforge/internal/config"
	"github.com/lutforge/lutforge/internal/lut"
	"github.com/lutforge/lutforge/internal/server"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "lutforge",
	Short:        "3D color LUT engine: synthesize, apply and serve .cube LUTs",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(synthCmd, gradeCmd, applyCmd, infoCmd, serveCmd)

	synthCmd.Flags().Float64Var(&sliders.Exposure, "exposure", 0, "exposure -100..100")
	synthCmd.Flags().Float64Var(&sliders.Contrast, "contrast", 0, "contrast -100..100")
	synthCmd.Flags().Float64Var(&sliders.Highlights, "highlights", 0, "highlights -100..100")
	synthCmd.Flags().Float64Var(&sliders.Shadows, "shadows", 0, "shadows -100..100")
	synthCmd.Flags().Float64Var(&sliders.Whites, "whites", 0, "whites -100..100")
	synthCmd.Flags().Float64Var(&sliders.Blacks, "blacks", 0, "blacks -100..100")
	synthCmd.Flags().Float64Var(&sliders.Saturation, "saturation", 0, "saturation -100..100")
	synthCmd.Flags().Float64Var(&sliders.Vibrance, "vibrance", 0, "vibrance -100..100")
	synthCmd.Flags().Float64Var(&sliders.Temperature, "temperature", 0, "temperature -100 warm .. 100 cool")
	synthCmd.Flags().Float64Var(&sliders.Tint, "tint", 0, "tint -100 green .. 100 magenta")
	synthCmd.Flags().IntVar(&synthSize, "size", adjust.DefaultSize, "grid resolution per axis")
	synthCmd.Flags().StringVarP(&outPath, "out", "o", "lutforge.cube", "output .cube path")
	synthCmd.Flags().StringVar(&lutTitle, "title", "lutforge", "TITLE header for the export")

	gradeCmd.Flags().StringVar(&paramsPath, "params", "", "JSON file with analysis parameters")
	gradeCmd.Flags().IntVar(&synthSize, "size", adjust.DefaultSize, "grid resolution per axis")
	gradeCmd.Flags().StringVarP(&outPath, "out", "o", "lutforge.cube", "output .cube path")
	_ = gradeCmd.MarkFlagRequired("params")

	applyCmd.Flags().StringVar(&lutPath, "lut", "", ".cube file to apply")
	applyCmd.Flags().Float64Var(&intensity, "intensity", 1.0, "blend intensity 0..1")
	applyCmd.Flags().BoolVar(&fastPreview, "preview", false, "nearest-node preview (fast, low fidelity)")
	applyCmd.Flags().StringVarP(&outPath, "out", "o", "", "output image path (.png or .jpg)")
	_ = applyCmd.MarkFlagRequired("lut")

	infoCmd.Flags().StringVar(&lutPath, "lut", "", ".cube file to inspect")
	_ = infoCmd.MarkFlagRequired("lut")

	serveCmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to config.yaml")
}

var (
	sliders     adjust.Adjustments
	synthSize   int
	outPath     string
	lutTitle    string
	paramsPath  string
	lutPath     string
	intensity   float64
	fastPreview bool
	addr        string
	configPath  string
)

var synthCmd = &cobra.Command{
	Use:   "synth",
	Short: "Synthesize a .cube LUT from slider values",
	RunE: func(cmd *cobra.Command, args []string) error {
		g := adjust.SynthesizeSize(sliders, synthSize)
		g.Title = lutTitle
		if err := writeCube(outPath, g); err != nil {
			return err
		}
		log.Info().Str("out", outPath).Int("size", g.Size()).Msg("LUT written")
		return nil
	},
}

var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Synthesize a .cube LUT from analysis-service parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := os.ReadFile(paramsPath)
		if err != nil {
			return fmt.Errorf("read params: %w", err)
		}
		p, err := decodeParams(b)
		if err != nil {
			return err
		}
		g := adjust.GradeSize(p, synthSize)
		if err := writeCube(outPath, g); err != nil {
			return err
		}
		log.Info().Str("out", outPath).Int("size", g.Size()).Msg("LUT written")
		return nil
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply <image>",
	Short: "Apply a .cube LUT to an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadCube(lutPath)
		if err != nil {
			return err
		}
		src, err := loadImage(args[0])
		if err != nil {
			return err
		}

		start := time.Now()
		var out *image.RGBA
		if fastPreview {
			out = apply.Preview(g, src, intensity)
		} else {
			out = apply.Apply(g, src, intensity)
		}
		log.Info().
			Int("w", src.Bounds().Dx()).
			Int("h", src.Bounds().Dy()).
			Dur("took", time.Since(start)).
			Msg("image transformed")

		dst := outPath
		if dst == "" {
			ext := filepath.Ext(args[0])
			dst = strings.TrimSuffix(args[0], ext) + "_graded.png"
		}
		return saveImage(dst, out)
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Inspect a .cube LUT",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadCube(lutPath)
		if err != nil {
			return err
		}
		fmt.Printf("title:     %s\n", g.Title)
		fmt.Printf("size:      %d (%d cells)\n", g.Size(), g.Size()*g.Size()*g.Size())
		fmt.Printf("populated: %d\n", g.Populated())
		fmt.Printf("swatches:  %s\n", strings.Join(apply.Swatches(g, 8), " "))
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the LUT engine as an HTTP/websocket service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if c, err := config.Load(configPath); err != nil {
			log.Warn().Err(err).Str("path", configPath).Msg("config load failed; using defaults")
		} else {
			cfg = c
		}
		if addr != "" {
			cfg.Addr = addr
		}

		state := server.NewState(cfg)
		srv := &http.Server{
			Addr:         cfg.Addr,
			Handler:      server.WithCORS(state.Routes()),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			log.Info().Str("addr", cfg.Addr).Msg("HTTP server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("http server crashed")
			}
		}()

		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		s := <-ch
		log.Info().Str("signal", s.String()).Msg("shutting down")
		return srv.Close()
	},
}

func decodeParams(b []byte) (adjust.Params, error) {
	p := adjust.DefaultParams()
	if err := json.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("decode params: %w", err)
	}
	return p, nil
}

func writeCube(path string, g *lut.Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return lut.Encode(f, g)
}

func loadCube(path string) (*lut.Grid, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	g, err := lut.Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return g, nil
}

func loadImage(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return server.ToRGBA(img), nil
}

func saveImage(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	default:
		return png.Encode(f, img)
	}
}
