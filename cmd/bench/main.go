package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/bpmx"
	"github.com/aretw0/bpmx/pkg/adapters/memory"
	"github.com/aretw0/bpmx/pkg/bpmn"
	"github.com/aretw0/bpmx/pkg/core"
	"github.com/aretw0/bpmx/pkg/history"
	"github.com/aretw0/bpmx/pkg/host"
)

// processTemplate is a three-step process whose history level is filled in.
const processTemplate = `<definitions xmlns:camunda="http://camunda.org/schema/1.0/bpmn">
  <process id="bench-%[1]s">
    <extensionElements><camunda:properties><camunda:property name="history" value="%[1]s"/></camunda:properties></extensionElements>
    <startEvent id="start"/>
    <sequenceFlow id="f1" sourceRef="start" targetRef="work"/>
    <serviceTask id="work"/>
    <sequenceFlow id="f2" sourceRef="work" targetRef="end"/>
    <endEvent id="end"/>
  </process>
</definitions>`

func main() {
	count := flag.Int("count", 1000, "Number of documents to generate")
	instances := flag.Int("instances", 10000, "Number of process instances to run")
	workers := flag.Int("workers", 8, "Concurrent instance starters")
	adapter := flag.String("adapter", "memory", "Connector adapter: memory or fs")
	keep := flag.Bool("keep", false, "Keep the benchmark directory after running")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()

	benchDir, err := os.MkdirTemp("", "bpmx_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	svc, err := bpmx.New(benchDir, bpmx.WithAdapter(*adapter), bpmx.WithLogger(logger))
	if err != nil {
		panic(err)
	}

	write, list, read := benchConnector(ctx, svc, *adapter, *count)
	run, recorded := benchHistory(ctx, logger, *instances, *workers)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Connector (%s, %d documents):\n", *adapter, *count)
	fmt.Printf("  Write: %v\n", write)
	fmt.Printf("  List:  %v\n", list)
	fmt.Printf("  Read:  %v\n", read)
	fmt.Printf("Per-process history (%d instances, %d workers):\n", *instances, *workers)
	fmt.Printf("  Run:      %v (%.0f instances/s)\n", run, float64(*instances)/run.Seconds())
	fmt.Printf("  Recorded: %d records\n", recorded)
	fmt.Printf("--------------------------------------------------\n")
}

func benchConnector(ctx context.Context, svc *core.Service, adapter string, count int) (write, list, read time.Duration) {
	parent := "/"
	if adapter == "memory" {
		parent = memory.FolderID
	}

	start := time.Now()
	for i := 0; i < count; i++ {
		content := fmt.Sprintf("<definitions id=\"doc-%d\"/>", i)
		if _, err := svc.CreateDocument(ctx, parent, fmt.Sprintf("doc_%d.bpmn", i), []byte(content)); err != nil {
			panic(err)
		}
	}
	write = time.Since(start)

	start = time.Now()
	nodes, err := svc.List(ctx, parent)
	if err != nil {
		panic(err)
	}
	list = time.Since(start)

	start = time.Now()
	for _, n := range nodes {
		if _, err := svc.ReadContent(ctx, n.ID); err != nil {
			panic(err)
		}
	}
	read = time.Since(start)
	return write, list, read
}

func benchHistory(ctx context.Context, logger *slog.Logger, instances, workers int) (time.Duration, int) {
	names := []string{history.NameNone, history.NameActivity, history.NameAudit, history.NameFull}

	store := history.NewMemoryStore()
	engine := host.New(history.NewPerProcessLevel(history.WithLogger(logger)), host.WithStore(store), host.WithLogger(logger))
	for _, name := range names {
		defs, err := bpmn.Parse(strings.NewReader(fmt.Sprintf(processTemplate, name)))
		if err != nil {
			panic(err)
		}
		if err := engine.Deploy(defs); err != nil {
			panic(err)
		}
	}

	var next atomic.Int64
	vars := map[string]any{"amount": 42, "customer": "acme"}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				i := next.Add(1) - 1
				if i >= int64(instances) {
					return nil
				}
				if _, err := engine.Start(gctx, "bench-"+names[i%int64(len(names))], vars); err != nil {
					return err
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		panic(err)
	}
	elapsed := time.Since(start)

	n, err := store.Count(ctx, history.Query{})
	if err != nil {
		panic(err)
	}
	return elapsed, n
}
