package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zucenko/dotlife/model"
)

var ErrBadLayout = errors.New("bad layout")

type Config struct {
	Port          string
	Size          int
	CountPerColor int
	Seed          int64
	Layout        string
	LogLevel      log.Level
}

func DefaultConfig() Config {
	return Config{
		Port:          "8080",
		Size:          model.DefaultSize,
		CountPerColor: 2,
		Seed:          time.Now().UnixNano(),
		LogLevel:      log.InfoLevel,
	}
}

// ConfigFromEnv overlays PORT, LOG_LEVEL and the DOTLIFE_* variables on
// DefaultConfig.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	} else {
		log.Printf("Defaulting to port %s", cfg.Port)
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		l, err := log.ParseLevel(lvl)
		if err != nil {
			return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = l
	}
	ints := []struct {
		name string
		dst  *int
	}{
		{"DOTLIFE_SIZE", &cfg.Size},
		{"DOTLIFE_PER_COLOR", &cfg.CountPerColor},
	}
	for _, v := range ints {
		s := os.Getenv(v.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", v.name, err)
		}
		*v.dst = n
	}
	if s := os.Getenv("DOTLIFE_SEED"); s != "" {
		seed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("DOTLIFE_SEED: %w", err)
		}
		cfg.Seed = seed
	}
	cfg.Layout = os.Getenv("DOTLIFE_LAYOUT")
	return cfg, nil
}

// NewGame builds the board for a fresh session: the layout file when one is
// configured, a random seeding otherwise.
func (c Config) NewGame(rng *rand.Rand) (*model.Game, error) {
	if c.Layout != "" {
		b, err := LoadLayout(c.Layout)
		if err != nil {
			return nil, err
		}
		return &model.Game{Board: b, Axis: &model.AxisSelector{}}, nil
	}
	return model.NewSeededGame(c.Size, c.CountPerColor, rng)
}

func LoadLayout(path string) (*model.Board, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadLayout(file)
}

// ReadLayout parses a square board, one row per line: '.' is empty and
// R G B Y P are tokens. Blank lines are skipped.
func ReadLayout(reader io.Reader) (*model.Board, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Split(bufio.ScanLines)
	lines := make([][]model.Color, 0)
	line := 0
	for scanner.Scan() {
		line++
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			continue
		}
		row := make([]model.Color, 0, len(s))
		for _, char := range s {
			color, ok := model.ParseColor(char)
			if !ok {
				return nil, fmt.Errorf("line %d: rune %q: %w", line, char, ErrBadLayout)
			}
			row = append(row, color)
		}
		if len(lines) > 0 && len(row) != len(lines[0]) {
			return nil, fmt.Errorf("line %d: %d cells, want %d: %w", line, len(row), len(lines[0]), ErrBadLayout)
		}
		lines = append(lines, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 || len(lines) != len(lines[0]) {
		return nil, fmt.Errorf("%d rows, board must be square: %w", len(lines), ErrBadLayout)
	}
	b, err := model.NewBoard(len(lines))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrBadLayout)
	}
	b.Matrix = lines
	return b, nil
}
