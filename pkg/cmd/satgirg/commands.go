package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/satgirg-clustering/pkg/api"
	"github.com/gilchrisn/satgirg-clustering/pkg/clustering"
	"github.com/gilchrisn/satgirg-clustering/pkg/experiment"
	"github.com/gilchrisn/satgirg-clustering/pkg/graphio"
)

const shutdownTimeout = 30 * time.Second

func newSweepCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Measure every (dimension, temperature) pair of the grid and print CSV rows",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			keys := map[string]string{
				"dimensions":   "sweep.dimensions",
				"temperatures": "sweep.temperatures",
				"reps":         "sweep.reps",
				"seed":         "sweep.seed",
				"summary":      "output.summary",
			}
			for name, key := range generatorKeys {
				keys[name] = key
			}
			return bindFlags(cmd.Flags(), a.cfg.Viper(), keys)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSweep(cmd)
		},
	}

	fs := cmd.Flags()
	addGeneratorFlags(fs)
	fs.IntSlice("dimensions", []int{1, 2, 3, 4, 5}, "torus dimensions")
	fs.Float64Slice("temperatures", []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}, "temperatures")
	fs.Int("reps", 100, "repetitions per (dimension, temperature)")
	fs.Int64("seed", 0, "base seed, incremented before every run")
	fs.Bool("summary", false, "print per-(dimension, temperature) statistics after the rows")
	return cmd
}

func (a *app) runSweep(cmd *cobra.Command) error {
	grid, err := a.cfg.Grid()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rw := experiment.NewRowWriter(out)
	if err := rw.WriteHeader(); err != nil {
		return err
	}

	var rows []experiment.Row
	err = experiment.Sweep(cmd.Context(), grid, a.logger, func(row experiment.Row) error {
		rows = append(rows, row)
		return rw.Write(row)
	})
	if err != nil {
		return err
	}

	if a.cfg.Summary() {
		fmt.Fprintln(out)
		return rw.WriteSummaries(experiment.Summarize(rows))
	}
	return nil
}

// singleRunFlags registers the flags selecting one run and returns a reader for them.
func singleRunFlags(a *app, cmd *cobra.Command) func() experiment.Params {
	fs := cmd.Flags()
	addGeneratorFlags(fs)
	dimension := fs.IntP("dimension", "d", 2, "torus dimension")
	temperature := fs.Float64P("temperature", "t", 0.5, "temperature")
	seed := fs.Int64("seed", 1, "run seed")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd.Flags(), a.cfg.Viper(), generatorKeys)
	}
	return func() experiment.Params {
		p := a.cfg.Params()
		p.Dimension = *dimension
		p.Temperature = *temperature
		p.Seed = *seed
		return p
	}
}

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Measure a single run and print it as CSV",
		Args:  cobra.NoArgs,
	}
	params := singleRunFlags(a, cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		row, err := experiment.Measure(cmd.Context(), params(), a.logger)
		if err != nil {
			return err
		}
		rw := experiment.NewRowWriter(cmd.OutOrStdout())
		if err := rw.WriteHeader(); err != nil {
			return err
		}
		return rw.Write(row)
	}
	return cmd
}

func newGenerateCmd(a *app) *cobra.Command {
	var outPath, dimacsPath string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one instance and store it",
		Args:  cobra.NoArgs,
	}
	params := singleRunFlags(a, cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (.edgelist, .json or .cnf)")
	cmd.Flags().StringVar(&dimacsPath, "dimacs", "", "also write the instance as DIMACS CNF")
	cmd.MarkFlagRequired("out")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		p := params()
		inst, err := experiment.Generate(cmd.Context(), p, a.logger)
		if err != nil {
			return err
		}

		list := &graphio.EdgeList{N: p.N, M: p.M, Edges: inst.Edges}
		if err := graphio.SaveFile(list, outPath, inst.Seeds.Edges); err != nil {
			return err
		}
		if dimacsPath != "" {
			if err := writeDIMACSFile(list, dimacsPath, inst.Seeds.Edges); err != nil {
				return err
			}
		}

		a.logger.Info().
			Str("path", outPath).
			Int("edges", len(inst.Edges)).
			Msg("Instance written")
		return nil
	}
	return cmd
}

func writeDIMACSFile(list *graphio.EdgeList, path string, seed int64) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := graphio.WriteDIMACS(file, list, seed); err != nil {
		return err
	}
	return file.Close()
}

// clusterReport is the output of the cluster command.
type clusterReport struct {
	N         int               `json:"n"`
	M         int               `json:"m"`
	EdgeCount int               `json:"edge_count"`
	Result    clustering.Result `json:"clustering"`
}

func newClusterCmd(a *app) *cobra.Command {
	var crossCheck bool

	cmd := &cobra.Command{
		Use:   "cluster <file>",
		Short: "Compute clustering statistics of a stored instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := graphio.LoadFile(args[0])
			if err != nil {
				return err
			}
			adj, err := clustering.BuildAdjacency(list.N, list.M, list.Edges)
			if err != nil {
				return err
			}
			result := clustering.Measure(adj)

			if crossCheck {
				if err := adj.CheckTranspose(); err != nil {
					return err
				}
				direct := clustering.CountFourCyclesByIntersection(adj)
				matrix := clustering.MatrixCycles(adj)
				if direct != result.FourCycles || matrix != result.FourCycles {
					return fmt.Errorf("cycle counts disagree: accumulated %d, intersection %d, matrix %d",
						result.FourCycles, direct, matrix)
				}
				a.logger.Info().Int64("four_cycles", result.FourCycles).Msg("Cross-check passed")
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(clusterReport{N: list.N, M: list.M, EdgeCount: adj.NumEdges(), Result: result})
		},
	}
	cmd.Flags().BoolVar(&crossCheck, "cross-check", false, "verify the cycle count by intersection and matrix product")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the clustering HTTP API",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd.Flags(), a.cfg.Viper(), map[string]string{"address": "server.address"})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a)
		},
	}
	cmd.Flags().String("address", ":8080", "listen address")
	return cmd
}

// serve runs the HTTP server until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, a *app) error {
	server := api.NewServer(a.cfg)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("address", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	<-errCh
	a.logger.Info().Msg("Server shutdown complete")
	return nil
}
