package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// stateCmd prints the server's loader metrics.
func stateCmd(args []string) {
	fs := pflag.NewFlagSet("state", pflag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)
	os.Exit(callServer(http.MethodGet, *baseURL, "/v1/loaders", 5*time.Second))
}

// snapshotCmd asks the server to write a snapshot after its next tick. The
// endpoint only answers loopback clients.
func snapshotCmd(args []string) {
	fs := pflag.NewFlagSet("snapshot", pflag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)
	os.Exit(callServer(http.MethodPost, *baseURL, "/admin/v1/snapshot", 10*time.Second))
}

func callServer(method, baseURL, path string, timeout time.Duration) int {
	u := strings.TrimRight(strings.TrimSpace(baseURL), "/") + path
	req, err := http.NewRequest(method, u, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		return 2
	}
	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		return 1
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(strings.TrimSpace(string(b)))
	if resp.StatusCode/100 != 2 {
		return 1
	}
	return 0
}
