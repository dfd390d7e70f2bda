// Package flagx lets several parsers share one argument list: each one keeps
// only the flags it owns.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns the arguments in args that belong to allowedFlags,
// together with their values. Both "-c file" and "-c=file" forms are kept.
// The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			// a following token that is not a flag is the value
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// ConfigPath returns the config file given with -c or -config, or "" when
// neither is present. When both are given the last one wins.
func ConfigPath(args []string) string {
	var path string

	filtered := FilterArgs(args, []string{"-c", "-config", "--config"})

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(filtered)

	return path
}
