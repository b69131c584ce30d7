package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	app "github.com/gnames/gnotu/pkg"
	"github.com/gnames/gnotu/pkg/config"
	"github.com/gnames/gnotu/pkg/query"
	"github.com/spf13/cobra"
)

func versionFlag(cmd *cobra.Command) {
	hasVersionFlag, _ := cmd.Flags().GetBool("version")
	if hasVersionFlag {
		fmt.Printf("\nversion: %s\nbuild: %s\n\n", app.Version, app.Build)
		os.Exit(0)
	}
}

// flagOptions converts persistent flags that were set into options.
func flagOptions(cmd *cobra.Command) []config.Option {
	var res []config.Option
	if s, _ := cmd.Flags().GetString("store"); s != "" {
		res = append(res, config.OptStoreBackend(s))
	}
	if s, _ := cmd.Flags().GetString("cache"); s != "" {
		res = append(res, config.OptCacheBackend(s))
	}
	return res
}

// readInput reads a query file, "-" means STDIN.
func readInput(path string) ([]byte, error) {
	var (
		res []byte
		err error
	)
	if path == "-" {
		res, err = io.ReadAll(os.Stdin)
	} else {
		res, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, query.ReadQueryError(path, err)
	}
	return res, nil
}

// confirm asks a yes/no question on STDIN.
func confirm(r io.Reader, question string) (bool, error) {
	fmt.Printf("\n%s (yes/no): ", question)
	response, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes" || response == "y", nil
}
