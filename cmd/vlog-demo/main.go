// Command vlog-demo starts a vlogger, waits for a browser and streams a mix
// of demo messages so the viewer page can be exercised by hand.
//
// Configuration comes from the environment (optionally via a .env file):
// WEB_VLOG filters targets, WEB_VLOG_DEMO_PORT pins the port and
// WEB_VLOG_DEMO_OPEN=1 launches the browser automatically.
package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	webvlog "github.com/redweasel/web-vlog"
)

func main() {
	// A missing .env file is fine; the plain environment still applies.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("skipping .env: %v", err)
	}

	port, err := webvlog.NewBuilder().Port(envPort()).TargetsFromEnv().Init()
	if err != nil {
		log.Fatalf("failed to start vlogger: %v", err)
	}
	url := fmt.Sprintf("http://localhost:%d/", port)
	fmt.Printf("vlog viewer at %s\n", url)

	if os.Getenv("WEB_VLOG_DEMO_OPEN") == "1" {
		if err := openBrowser(url); err != nil {
			log.Printf("could not open browser: %v", err)
		}
	}

	fmt.Println("waiting for a browser to connect...")
	if err := webvlog.WaitForConnection(); err != nil {
		log.Fatalf("no viewer: %v", err)
	}

	webvlog.Emit("custom_target_1", "surface", "First message")
	webvlog.Emit("custom_target_2", "surface", "Second message")
	webvlog.Emit("custom_target_2::submodule", "surface", "Third message")

	// A small animation loop shows clear-and-redraw behavior.
	for i := 0; i <= 100; i++ {
		webvlog.Clear("loading")
		webvlog.Emit("loading", "loading", fmt.Sprintf("%d%%", i))
		time.Sleep(16 * time.Millisecond)
	}

	// Identical consecutive messages collapse into a repeat counter.
	for i := 0; i < 1000; i++ {
		webvlog.Emit("spam", "spam", "TEST SPAMMING!")
	}
	// Markup in payloads must render as text, never as HTML.
	webvlog.Emit("spam", "spam", `TEST SPAMMING<img src="fun.gif" onerror="alert('!')"/>`)
	webvlog.Emit("spam", "spam", `TEST SPAMMING<script>alert("!")</script>`)

	fmt.Println("demo messages sent; Ctrl+C to exit")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	webvlog.Shutdown()
}

func envPort() uint16 {
	raw := os.Getenv("WEB_VLOG_DEMO_PORT")
	if raw == "" {
		return 0
	}
	port, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		log.Printf("ignoring bad WEB_VLOG_DEMO_PORT %q: %v", raw, err)
		return 0
	}
	return uint16(port)
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
