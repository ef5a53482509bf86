package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	designerApp "designer/internal/app"
	"designer/internal/config"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "A design canvas editor with an HTTP API, an MCP server and an exporter.\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve     Run the HTTP API (uploads, designs, export, live sessions) and MCP over HTTP\n")
	fmt.Fprintf(os.Stderr, "  mcp       Run the MCP server on stdin/stdout\n")
	fmt.Fprintf(os.Stderr, "  export    Export one design to a file\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  %s serve -port 8080\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s export -id 3f2a... -format png -scale 2 -out ./out\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nConfiguration is read from the environment (DESIGNER_DATA_DIR, PORT, AUTOSAVE_SCHEDULE, ...).\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cfg := config.Load()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "serve":
		err = runServe(cfg, args)
	case "mcp":
		err = runMCP(cfg, args)
	case "export":
		err = runExport(cfg, args)
	case "help", "-h", "-help", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func runServe(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.String("port", cfg.Port, "HTTP port")
	mcpPort := fs.String("mcp-port", cfg.MCPPort, "Port for MCP over streamable HTTP, empty to disable")
	dataDir := fs.String("data", cfg.DataDir, "Data directory (database, uploads)")
	templates := fs.String("templates", cfg.TemplateDir, "Directory of JSON templates to watch (optional)")
	autosave := fs.String("autosave", cfg.AutosaveSchedule, "Autosave cron schedule, empty to disable")
	fs.Parse(args)

	cfg.Port = *port
	cfg.MCPPort = *mcpPort
	cfg.TemplateDir = *templates
	cfg.AutosaveSchedule = *autosave
	setDataDir(cfg, *dataDir)
	return designerApp.ServeHTTP(cfg)
}

func runMCP(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	dataDir := fs.String("data", cfg.DataDir, "Data directory (database, uploads)")
	templates := fs.String("templates", cfg.TemplateDir, "Directory of JSON templates to watch (optional)")
	fs.Parse(args)

	cfg.TemplateDir = *templates
	setDataDir(cfg, *dataDir)
	return designerApp.ServeMCP(cfg)
}

func runExport(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	id := fs.String("id", "", "Design ID to export (required)")
	format := fs.String("format", "png", "Export format: png, jpeg, svg")
	scale := fs.Float64("scale", cfg.ExportScale, "Pixel ratio for raster formats")
	quality := fs.Int("quality", cfg.JPEGQuality, "JPEG quality 1-100")
	out := fs.String("out", "", "Output directory (default $EXPORT_DIR or <data>/exports)")
	dataDir := fs.String("data", cfg.DataDir, "Data directory (database, uploads)")
	fs.Parse(args)

	if *id == "" {
		fs.Usage()
		return fmt.Errorf("-id is required")
	}
	setDataDir(cfg, *dataDir)

	path, err := designerApp.ExportDesign(context.Background(), cfg, designerApp.ExportRequest{
		DesignID: *id,
		Format:   *format,
		Scale:    *scale,
		Quality:  *quality,
		OutDir:   *out,
	})
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

// setDataDir moves the data directory; the export dir follows it unless it
// was set explicitly.
func setDataDir(cfg *config.Config, dir string) {
	if dir == cfg.DataDir {
		return
	}
	if os.Getenv("EXPORT_DIR") == "" {
		cfg.ExportDir = filepath.Join(dir, "exports")
	}
	cfg.DataDir = dir
}
