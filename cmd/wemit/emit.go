package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/nkcmr/wemit"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func Emit() *cli.Command {
	return &cli.Command{
		Name:  "emit",
		Usage: "registers one listener per weight and emits an event",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "event",
				Usage:   "sets the event name",
				Value:   "demo",
				Aliases: []string{"e"},
			},
			&cli.IntSliceFlag{
				Name:    "weight",
				Usage:   "registers a listener with this weight, may be repeated",
				Aliases: []string{"w"},
				EnvVars: []string{"WEMIT_WEIGHTS"},
			},
			&cli.IntFlag{
				Name:  "fail",
				Usage: "makes the listener with this weight fail",
			},
			&cli.IntFlag{
				Name:  "parallel",
				Usage: "runs this many emissions at once",
				Value: 1,
			},
			&cli.StringFlag{
				Name:    "log_level",
				Usage:   "sets the log level (trace, debug, info, warning, error)",
				Value:   "info",
				Aliases: []string{"log"},
				EnvVars: []string{"WEMIT_LOG_LEVEL"},
			},
		},
		Action: func(c *cli.Context) error {
			var (
				EVENT    = c.String("event")
				WEIGHTS  = c.IntSlice("weight")
				PARALLEL = c.Int("parallel")
			)

			log := logrus.New()
			log.SetOutput(c.App.ErrWriter)
			log.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
			lvl, err := logrus.ParseLevel(c.String("log_level"))
			if err != nil {
				return err
			}
			log.SetLevel(lvl)

			e := wemit.New(wemit.WithLogger(log))
			for _, w := range WEIGHTS {
				e.On(EVENT, weightListener(w, c.IsSet("fail") && c.Int("fail") == w), w)
			}

			if PARALLEL < 1 {
				PARALLEL = 1
			}
			results := make([]string, PARALLEL)
			g, ctx := errgroup.WithContext(c.Context)
			for i := 0; i < PARALLEL; i++ {
				i := i
				g.Go(func() error {
					result, err := e.EmitWait(ctx, EVENT, i)
					if err != nil {
						return errors.Wrapf(err, "emission %d", i)
					}
					results[i] = formatResult(result)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			for i, r := range results {
				fmt.Fprintf(c.App.Writer, "%d: %s\n", i, r)
			}
			return nil
		},
	}
}

func weightListener(weight int, fail bool) wemit.Listener {
	return wemit.Func(func(ctx context.Context, res *wemit.Response, next wemit.Next) {
		if fail {
			next(fmt.Errorf("listener with weight %d failed", weight))
			return
		}
		order, _ := res.Result.([]int)
		res.Result = append(order, weight)
		next(nil)
	})
}

func formatResult(result any) string {
	order, _ := result.([]int)
	parts := make([]string, len(order))
	for i, w := range order {
		parts[i] = fmt.Sprint(w)
	}
	if len(parts) == 0 {
		return "<none>"
	}
	return strings.Join(parts, " ")
}
