// Package main implements the ccnes NES emulator executable.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mp3/ccnes/internal/app"
	"github.com/mp3/ccnes/internal/version"
)

func main() {
	var (
		romFile    = flag.String("rom", "", "Path to NES ROM file (optional for GUI mode)")
		configFile = flag.String("config", "", "Path to configuration file")
		nogui      = flag.Bool("nogui", false, "Run without GUI (headless mode)")
		frames     = flag.Int("frames", 120, "Frames to run in headless mode")
		help       = flag.Bool("help", false, "Show help message")
		showVer    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}
	if *showVer {
		version.PrintBuildInfo()
		os.Exit(0)
	}

	setupGracefulShutdown()

	configPath := *configFile
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}

	application, err := app.NewApplicationWithMode(configPath, *nogui)
	if err != nil {
		log.Fatalf("failed to create application: %v", err)
	}
	defer func() {
		if err := application.Cleanup(); err != nil {
			log.Printf("application cleanup error: %v", err)
		}
	}()

	if *romFile != "" {
		if err := application.LoadROM(*romFile); err != nil {
			log.Fatalf("failed to load ROM: %v", err)
		}
	}

	if *nogui {
		if *romFile == "" {
			log.Fatal("ROM file required for headless mode")
		}
		runHeadlessMode(application, *frames)
		return
	}

	if err := runGUIMode(application); err != nil {
		log.Fatalf("GUI mode failed: %v", err)
	}
}

func runGUIMode(application *app.Application) error {
	config := application.GetConfig()
	windowWidth, windowHeight := config.WindowResolution()
	fmt.Printf("window: %dx%d (scale %dx)\n", windowWidth, windowHeight, config.Window.Scale)
	fmt.Printf("audio: %s (%d Hz, %s resampler)\n",
		enabledString(config.Audio.Enabled), config.Audio.SampleRate, config.Audio.Resampler)
	fmt.Printf("video: %s, %s, vsync: %s\n",
		config.Video.Filter, config.Video.AspectRatio, enabledString(config.Video.VSync))

	if err := application.Run(); err != nil {
		return fmt.Errorf("application run failed: %w", err)
	}

	fmt.Printf("frames rendered: %d\n", application.GetFrameCount())
	fmt.Printf("session time: %v\n", application.GetUptime())
	fmt.Printf("average fps: %.1f\n", application.GetFPS())
	return nil
}

// runHeadlessMode runs the console for a fixed number of frames with no
// window, dumping a few PPM snapshots along the way for inspection.
func runHeadlessMode(application *app.Application, targetFrames int) {
	c := application.GetConsole()

	for frame := 0; frame < targetFrames; frame++ {
		c.RunFrame()

		if frame == targetFrames/4 || frame == targetFrames/2 || frame == targetFrames-1 {
			name := fmt.Sprintf("frame_%03d.ppm", frame+1)
			frameBuffer := c.Framebuffer()
			if err := saveFrameBufferAsPPM(frameBuffer, name); err != nil {
				fmt.Printf("failed to save %s: %v\n", name, err)
				continue
			}
			analyzeFrameBuffer(frameBuffer, frame+1)
		}
	}

	fmt.Printf("headless run complete: %d frames, %d cycles\n", c.FrameCount(), c.CycleCount())
}

func saveFrameBufferAsPPM(frameBuffer [256 * 240]uint32, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(file, "P3\n256 240\n255\n")
	for y := 0; y < 240; y++ {
		for x := 0; x < 256; x++ {
			pixel := frameBuffer[y*256+x]
			r := (pixel >> 16) & 0xFF
			g := (pixel >> 8) & 0xFF
			b := pixel & 0xFF
			fmt.Fprintf(file, "%d %d %d ", r, g, b)
		}
		fmt.Fprintln(file)
	}
	return nil
}

func analyzeFrameBuffer(frameBuffer [256 * 240]uint32, frame int) {
	colorCounts := make(map[uint32]int)
	for _, pixel := range frameBuffer {
		colorCounts[pixel]++
	}

	nonBlackPixels := 0
	for color, count := range colorCounts {
		if color != 0x000000 {
			nonBlackPixels += count
		}
	}

	fmt.Printf("frame %d: %d distinct colors, %d non-black pixels (%.1f%%)\n",
		frame, len(colorCounts), nonBlackPixels,
		float64(nonBlackPixels)/float64(256*240)*100)
}

func setupGracefulShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		os.Exit(0)
	}()
}

func enabledString(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func printUsage() {
	fmt.Println("ccnes - NES emulator")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  ccnes [options]                    # Start GUI mode without ROM")
	fmt.Println("  ccnes -rom <file> [options]        # Start with ROM loaded")
	fmt.Println("  ccnes -nogui -rom <file> [options] # Run headless mode")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("CONTROLS (Default):")
	fmt.Println("  Player 1:")
	fmt.Println("    Arrow Keys / WASD - D-Pad")
	fmt.Println("    J                 - A Button")
	fmt.Println("    K                 - B Button")
	fmt.Println("    Enter             - Start")
	fmt.Println("    Space             - Select")
	fmt.Println()
	fmt.Println("  Special Keys:")
	fmt.Println("    Escape (2x)       - Quit (double-tap within 3 seconds)")
	fmt.Println("    F1-F10            - Save States")
	fmt.Println("    Shift+F1-F10      - Load States")
	fmt.Println()
	fmt.Println("SUPPORTED MAPPERS:")
	fmt.Println("  NROM, MMC1, UxROM, CNROM, MMC3, MMC5, AxROM, MMC2, Color Dreams, GxROM")
}
