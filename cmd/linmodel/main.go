// Command linmodel applies a transaction file to a document and prints the resulting
// linear data.
//
//	linmodel -doc doc.json -tx tx.json [-rollback] [-save] [-config linmodel.yaml]
//	linmodel -load <document id> -tx tx.json -save
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"linmodel/common"
	"linmodel/config"
	"linmodel/core/doclog"
	"linmodel/document"
	"linmodel/history"
	"linmodel/linear"
	"linmodel/metrics"
	"linmodel/persistence"
	"linmodel/processor"
	"linmodel/tablematrix"
	"linmodel/transaction"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "linmodel: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	config      string
	doc         string
	load        string
	tx          string
	rollback    bool
	save        bool
	showMetrics bool
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet("linmodel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.config, "config", "", "YAML configuration file")
	fs.StringVar(&f.doc, "doc", "", "document file: an item array or a saved snapshot")
	fs.StringVar(&f.load, "load", "", "id of a stored document to load instead of -doc")
	fs.StringVar(&f.tx, "tx", "", "transaction file")
	fs.BoolVar(&f.rollback, "rollback", false, "roll the transaction back after committing it")
	fs.BoolVar(&f.save, "save", false, "save the result through the configured storage")
	fs.BoolVar(&f.showMetrics, "metrics", false, "print transaction metrics to stderr")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if (f.doc == "") == (f.load == "") {
		return nil, errors.New("exactly one of -doc and -load is required")
	}
	return f, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	f, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg := config.Default()
	if f.config != "" {
		if cfg, err = config.Load(f.config); err != nil {
			return err
		}
	}
	doclog.SetLogger(cfg.Log.ShowCaller, cfg.Log.Level)
	logger := doclog.Named("cli")

	registry := prometheus.NewRegistry()
	collector, err := metrics.New(registry)
	if err != nil {
		return err
	}

	var repo *persistence.Repository
	if f.save || f.load != "" {
		adapter, err := persistence.OpenAdapter(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		repo = persistence.NewRepository(adapter)
		defer repo.Close()
	}

	doc, version, err := loadDocument(ctx, f, repo)
	if err != nil {
		return err
	}

	p := processor.New(
		processor.WithBatchSize(cfg.Processor.SpliceBatchSize),
		processor.WithMetrics(collector),
	)
	h := history.New(doc, p, history.WithMaxDepth(cfg.History.MaxDepth))

	if f.tx != "" {
		tx, err := readTransaction(f.tx)
		if err != nil {
			return err
		}
		if err := h.Push(tx); err != nil {
			return err
		}
		if r := tx.GetModifiedRange(doc); r != nil {
			logger.Info("committed transaction", zap.String("id", tx.ID.String()), zap.Stringer("modified", r))
		}
		if f.rollback {
			if _, err := h.Undo(); err != nil {
				return err
			}
		}
	}

	if f.save {
		if _, err := repo.Save(ctx, doc, version+h.Version()); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "saved %s\n", doc.ID)
	}

	out, err := json.MarshalIndent(doc.Data(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(out))

	if f.showMetrics {
		return printMetrics(registry, stderr)
	}
	return nil
}

func loadDocument(ctx context.Context, f *flags, repo *persistence.Repository) (*document.Document, int64, error) {
	factory := document.WithFactory(tablematrix.NewRegistry())
	if f.load != "" {
		id, err := common.ParseDocumentID(f.load)
		if err != nil {
			return nil, 0, err
		}
		return repo.Load(ctx, id, factory)
	}

	data, err := os.ReadFile(f.doc)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "failed to read document %s", f.doc)
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		items, err := linear.UnmarshalItems(trimmed)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "failed to decode document %s", f.doc)
		}
		doc, err := document.NewFromItems(items, factory)
		return doc, 0, err
	}
	snapshot, err := persistence.NewJSONSerializer().Deserialize(data)
	if err != nil {
		return nil, 0, err
	}
	doc, err := persistence.Restore(snapshot, factory)
	return doc, snapshot.Version, err
}

func readTransaction(path string) (*transaction.Transaction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read transaction %s", path)
	}
	tx := &transaction.Transaction{}
	if err := json.Unmarshal(data, tx); err != nil {
		return nil, errors.Wrapf(err, "failed to decode transaction %s", path)
	}
	return tx, nil
}

func printMetrics(registry *prometheus.Registry, w io.Writer) error {
	families, err := registry.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, family := range families {
		for _, m := range family.GetMetric() {
			var labels []string
			for _, pair := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", pair.GetName(), pair.GetValue()))
			}
			name := family.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s %g", name, m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				lines = append(lines, fmt.Sprintf("%s_count %d", name, m.GetHistogram().GetSampleCount()))
			}
		}
	}
	sort.Strings(lines)
	_, err = fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}
