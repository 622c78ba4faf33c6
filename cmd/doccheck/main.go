// doccheck reports consistency problems in stored documents. Each argument
// is either a document file written by the file storage backend or a bare
// serialized graph.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/dnsosebee/methodable-sub000/domain/core/aggregates"
	"github.com/dnsosebee/methodable-sub000/domain/core/validators"
)

// report is the result for one file
type report struct {
	File     string   `json:"file"`
	Problems []string `json:"problems"`
	Error    string   `json:"error,omitempty"`
}

func main() {
	code, err := run(os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(code)
}

func run(args []string, out io.Writer) (int, error) {
	var asJSON bool
	flagSet := pflag.NewFlagSet("doccheck", pflag.ContinueOnError)
	flagSet.BoolVar(&asJSON, "json", false, "print one JSON report per line")
	flagSet.BoolP("help", "h", false, "show help")
	flagSet.SetOutput(out)

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0, nil
		}
		return 2, err
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		fmt.Fprintln(out, "usage: doccheck [--json] FILE...")
		flagSet.PrintDefaults()
		if help {
			return 0, nil
		}
		return 2, nil
	}

	validator := validators.NewGraphValidator()
	enc := json.NewEncoder(out)
	code := 0
	for _, name := range flagSet.Args() {
		rep := check(validator, name)
		if rep.Error != "" || len(rep.Problems) > 0 {
			code = 1
		}
		if asJSON {
			if err := enc.Encode(rep); err != nil {
				return 2, err
			}
			continue
		}
		switch {
		case rep.Error != "":
			fmt.Fprintf(out, "%s: %s\n", rep.File, rep.Error)
		case len(rep.Problems) == 0:
			fmt.Fprintf(out, "%s: ok\n", rep.File)
		default:
			for _, p := range rep.Problems {
				fmt.Fprintf(out, "%s: %s\n", rep.File, p)
			}
		}
	}
	return code, nil
}

func check(validator *validators.GraphValidator, name string) report {
	rep := report{File: name, Problems: []string{}}
	data, err := os.ReadFile(name)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	g, err := aggregates.Deserialize(string(graphPayload(data)))
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	rep.Problems = append(rep.Problems, validator.Check(g)...)
	return rep
}

// graphPayload unwraps the "graph" field of a stored document, if present
func graphPayload(data []byte) []byte {
	var record struct {
		Graph json.RawMessage `json:"graph"`
	}
	if err := json.Unmarshal(data, &record); err == nil && len(record.Graph) > 0 {
		return record.Graph
	}
	return data
}
