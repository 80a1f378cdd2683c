// Command afl-submit is the boundary submission CLI (§6.2): it reads a
// compiled program from a JSON file, starts one execution of a named
// workflow within it, and prints the resulting runner's identifiers.
// Driving that runner to completion is the worker's job, not this one's.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rlemke/agentflow-sub002/internal/config"
	"github.com/rlemke/agentflow-sub002/internal/platform/logger"
	"github.com/rlemke/agentflow-sub002/internal/program"
	"github.com/rlemke/agentflow-sub002/internal/store"
	"github.com/rlemke/agentflow-sub002/internal/submit"
)

func main() {
	programPath := flag.String("program", "", "path to a compiled program JSON file")
	workflowName := flag.String("workflow", "", "name of the workflow to run")
	inputsJSON := flag.String("inputs", "{}", "JSON object of workflow input values")
	flag.Parse()

	if *programPath == "" || *workflowName == "" {
		fmt.Println("usage: afl-submit -program <path> -workflow <name> [-inputs '{\"x\":1}']")
		os.Exit(2)
	}

	raw, err := os.ReadFile(*programPath)
	if err != nil {
		fmt.Printf("failed to read program file: %v\n", err)
		os.Exit(1)
	}

	var prog program.Program
	if err := json.Unmarshal(raw, &prog); err != nil {
		fmt.Printf("failed to parse program JSON: %v\n", err)
		os.Exit(1)
	}

	var inputs map[string]any
	if err := json.Unmarshal([]byte(*inputsJSON), &inputs); err != nil {
		fmt.Printf("failed to parse -inputs JSON: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	st, err := store.Open(log)
	if err != nil {
		fmt.Printf("failed to connect to store: %v\n", err)
		os.Exit(1)
	}

	res, err := submit.Submit(context.Background(), st, string(raw), &prog, *workflowName, inputs)
	if err != nil {
		fmt.Printf("submit failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("runner_id=%s flow_id=%s workflow_id=%s root_step_id=%s\n",
		res.RunnerID, res.FlowID, res.WorkflowID, res.RootStepID)
}
