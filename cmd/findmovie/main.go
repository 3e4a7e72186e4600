// Command findmovie is a terminal client for incremental title search.
//
// Each typed line replaces the query. ":next" loads more results,
// ":open N" shows the details of the Nth result and ":quit" exits.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/moviefinder/moviefinder/internal/config"
	"github.com/moviefinder/moviefinder/internal/directory"
	"github.com/moviefinder/moviefinder/internal/directory/mock"
	"github.com/moviefinder/moviefinder/internal/directory/omdb"
	"github.com/moviefinder/moviefinder/internal/search"
	"github.com/moviefinder/moviefinder/internal/session"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	useMock := flag.Bool("mock", false, "Search the built-in catalogue instead of OMDb")
	debounce := flag.Duration("debounce", -1, "Override the debounce delay")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *useMock {
		cfg.Directory.Provider = config.ProviderMock
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(zerolog.WarnLevel).
		With().Timestamp().Logger()

	var dir directory.Directory
	if cfg.Directory.Provider == config.ProviderMock {
		dir, err = mock.New(cfg.Search.PageSize)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load catalogue")
		}
	} else {
		dir = omdb.NewClient(cfg.Directory.OMDB, log)
	}

	searchCfg := search.Config{
		Debounce:    cfg.Search.Debounce(),
		InitialPage: cfg.Search.InitialPage,
		PageSize:    cfg.Search.PageSize,
	}
	if *debounce >= 0 {
		searchCfg.Debounce = *debounce
	}

	view := &terminal{out: os.Stdout}
	s := session.New(dir, view, searchCfg, log)
	defer s.Close()

	fmt.Fprintln(os.Stdout, "Type a title to search. :next for more, :open N for details, :quit to exit.")
	run(s, view, os.Stdin)
}

func run(s *session.Session, view *terminal, in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == ":quit" || line == ":q":
			return
		case line == ":next":
			_ = s.Handle(session.MsgSearchNext, nil)
		case strings.HasPrefix(line, ":open"):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, ":open")))
			if err != nil {
				view.printf("usage: :open N\n")
				continue
			}
			id, ok := view.resultID(n)
			if !ok {
				view.printf("no result %d\n", n)
				continue
			}
			_ = s.Handle(session.MsgDetailLoad, payload(session.DetailPayload{ID: id}))
		default:
			_ = s.Handle(session.MsgSearchQuery, payload(session.QueryPayload{Text: line}))
		}
	}
}
