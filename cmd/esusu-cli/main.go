package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage())
		return 1
	}
	switch args[0] {
	case "estimate":
		return runEstimate(args[1:], stdout, stderr)
	case "campaigns":
		return runCampaigns(args[1:], stdout, stderr)
	case "locks":
		return runLocks(args[1:], stdout, stderr)
	case "summary":
		return runSummary(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage())
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		fmt.Fprintln(stderr, usage())
		return 1
	}
}

func usage() string {
	return strings.TrimSpace(`
Usage: esusu-cli <command> [flags]

Commands:
  estimate   --principal <amount> --days <n> [--rate <fraction>]
  campaigns  [--id <text>] [--status active|completed|all]
             [--min-contribution <amount>] [--max-contribution <amount>]
             [--min-participants <n>] [--max-participants <n>]
  locks      [--status active|completed|all] [--min-amount <amount>] [--max-amount <amount>]
             [--min-duration <days>] [--max-duration <days>]
  summary    [--address <0x...>]

Data flags (all commands):
  --api <url>        query a running savingsd (env ESUSU_API)
  --fixture <path>   read a YAML or TOML fixture locally (env ESUSU_FIXTURE)
  --format <mode>    auto, table or json (default auto: table on a terminal)`)
}
