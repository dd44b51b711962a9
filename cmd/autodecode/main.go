package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/modfin/autodecode"
	"github.com/modfin/autodecode/charsets/iconv"
	"github.com/modfin/autodecode/detect"
	"github.com/modfin/autodecode/detect/rediscache"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var verbosity = 0

var (
	configPath      string
	defaultEncoding string
	minConfidence   float64
	consumeSize     int
	stripBOM        bool
	useIconv        bool
	redisAddr       string
	redisTTL        time.Duration
	outputPath      string
)

var cmd = &cobra.Command{
	Use:              "autodecode [file...]",
	Short:            "Decode files of unknown character encoding to UTF-8",
	Long:             "Reads each file (or stdin), detects its character encoding and writes it to stdout as UTF-8.",
	PersistentPreRun: logging,
	RunE:             run,
	SilenceUsage:     true,
}

func init() {
	cmd.Flags().CountVarP(&verbosity, "verbose", "v", "how verbose to be, can use multiple")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "JSON file with decoder options")
	cmd.Flags().StringVarP(&defaultEncoding, "default-encoding", "d", "utf8", "encoding to use when detection is inconclusive")
	cmd.Flags().Float64VarP(&minConfidence, "min-confidence", "m", detect.DefaultMinConfidence, "minimum detector confidence, 0 to 1")
	cmd.Flags().IntVarP(&consumeSize, "consume-size", "n", 128, "bytes to inspect before deciding on an encoding")
	cmd.Flags().BoolVar(&stripBOM, "strip-bom", true, "remove a leading byte order mark")
	cmd.Flags().BoolVar(&useIconv, "iconv", false, "decode with the system iconv instead of the built-in tables")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "redis address for caching detection results, ie localhost:6379")
	cmd.Flags().DurationVar(&redisTTL, "redis-ttl", 24*time.Hour, "expiry of cached detection results")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write to this file instead of stdout")
}

func main() {
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cc *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cc.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts, err := options(cc)
	if err != nil {
		return err
	}

	if len(args) == 0 && isTerminal(cc.InOrStdin()) {
		return errors.New("no input: pass files or pipe data on stdin")
	}

	out := cc.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("unable to create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	if len(args) == 0 {
		return decode(ctx, "-", cc.InOrStdin(), out, opts)
	}
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("unable to open input: %w", err)
		}
		err = decode(ctx, path, f, out, opts)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func decode(ctx context.Context, name string, in io.Reader, out io.Writer, opts []autodecode.Option) error {
	s, err := autodecode.New(append(opts[:len(opts):len(opts)], autodecode.WithOutput(out))...)
	if err != nil {
		return err
	}

	start := time.Now()
	n, err := s.Pump(ctx, in)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	log.WithFields(log.Fields{
		"input":    name,
		"encoding": s.Encoding(),
		"bytes":    n,
		"duration": time.Since(start),
	}).Info("decoded")
	return nil
}

// options merges the config file with the flags that were set explicitly.
func options(cc *cobra.Command) ([]autodecode.Option, error) {
	var base autodecode.Options
	if configPath != "" {
		b, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read config: %w", err)
		}
		if err := json.Unmarshal(b, &base); err != nil {
			return nil, fmt.Errorf("unable to parse config %s: %w", configPath, err)
		}
	}

	opts := []autodecode.Option{
		autodecode.WithOptions(base),
		autodecode.WithLogger(slog.New(newLogrusHandler(log.StandardLogger()))),
	}

	flags := cc.Flags()
	if flags.Changed("default-encoding") || base.DefaultEncoding == "" {
		opts = append(opts, autodecode.WithDefaultEncoding(defaultEncoding))
	}
	if flags.Changed("min-confidence") {
		opts = append(opts, autodecode.WithMinConfidence(minConfidence))
	}
	if flags.Changed("consume-size") || base.ConsumeSize == 0 {
		opts = append(opts, autodecode.WithConsumeSize(consumeSize))
	}
	if flags.Changed("strip-bom") {
		opts = append(opts, autodecode.WithStripBOM(stripBOM))
	}
	if useIconv {
		opts = append(opts, autodecode.WithProvider(iconv.Provider{}))
	}
	if redisAddr != "" {
		cache := rediscache.New(rediscache.NewPool(redisAddr), rediscache.WithTTL(redisTTL))
		opts = append(opts, autodecode.WithDetector(detect.NewCached(detect.Default, cache)))
		log.Debugf("caching detection results in redis at %s", redisAddr)
	}
	return opts, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func logging(cmd *cobra.Command, args []string) {
	log.SetOutput(os.Stderr)
	switch verbosity {
	case 0:
		log.SetLevel(log.WarnLevel)
	case 1:
		log.SetLevel(log.InfoLevel)
	default: // 2+
		log.SetLevel(log.DebugLevel)
	}
}
