// Copyright 2024 The nowbar Authors
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"runtime/pprof"

	tviewcommand "github.com/spezifisch/tview-command"
	"github.com/spf13/viper"

	"nowbar/logger"
	"nowbar/metasync"
	"nowbar/mpdplayer"
	"nowbar/mprisplayer"
	"nowbar/mpvplayer"
)

var osExit = os.Exit  // A variable to allow mocking os.Exit in tests
var headlessMode bool // This can be set to true during tests
var testMode bool     // This can be set to true during tests, too

const DEVELOPMENT = "development"

// Name is the program name, as shown by --version
var Name string = "nowbar"

// Version is the program version; usually set from BuildInfo
var Version string = DEVELOPMENT

func readConfig(configFile *string) error {
	if configFile != nil && *configFile != "" {
		// use custom config file
		viper.SetConfigFile(*configFile)
	} else {
		// lookup default dirs
		viper.SetConfigName("nowbar")
		viper.SetConfigType("toml")
		viper.AddConfigPath("$HOME/.config/nowbar")
		viper.AddConfigPath(".")
	}

	viper.SetDefault("backend", "mpris")
	viper.SetDefault("mpd.address", "127.0.0.1:6600")
	viper.SetDefault("ui.artwork", true)

	// read it; the panel runs fine on defaults, so a missing config file
	// is not an error, only a broken one is
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("Config file error: %s\n", err)
		}
	}

	return nil
}

// initCommandHandler sets up tview-command as main input handler
func initCommandHandler(logger *logger.Logger) {
	tviewcommand.SetLogHandler(func(msg string) {
		logger.Print(msg)
	})

	configPath := viper.GetString("ui.keymap")
	if configPath == "" {
		return
	}

	// Load the configuration file
	config, err := tviewcommand.LoadConfig(configPath)
	if err != nil || config == nil {
		logger.PrintError("Failed to load command-shortcut config", err)
	}
}

// createBackend builds the playback model named in the config. The second
// return value is the backend's control surface; all bundled backends
// provide one.
func createBackend(ui *Ui, log *logger.Logger, playURI string) (metasync.PlaybackModel, PlayerControls, error) {
	switch backend := viper.GetString("backend"); backend {
	case "mpris":
		player, err := mprisplayer.NewPlayer(viper.GetString("mpris.player"), ui.Dispatch, log)
		if err != nil {
			return nil, nil, err
		}
		return player, player, nil

	case "mpd":
		player, err := mpdplayer.NewPlayer(
			viper.GetString("mpd.address"),
			viper.GetString("mpd.password"),
			viper.GetString("mpd.music-directory"),
			ui.Dispatch, log)
		if err != nil {
			return nil, nil, err
		}
		return player, player, nil

	case "mpv":
		player, err := mpvplayer.NewPlayer(ui.Dispatch, log)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to initialize mpv, is mpv installed? %s", err)
		}
		if playURI != "" {
			if err := player.Play(playURI); err != nil {
				return nil, nil, err
			}
		}
		return player, player, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q (want mpris, mpd or mpv)", backend)
	}
}

// return codes:
// 0 - OK
// 1 - generic errors
// 2 - main config errors
func main() {
	help := flag.Bool("help", false, "Print usage")
	backendFlag := flag.String("backend", "", "playback source: mpris, mpd or mpv (overrides the config file)")
	playURI := flag.String("play", "", "play `uri` with the embedded mpv backend")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to `file`")
	configFile := flag.String("config", "", "use config `file`")
	version := flag.Bool("version", false, "print the nowbar version and exit")

	flag.Parse()
	if *help {
		fmt.Printf("USAGE: %s <args>\n", os.Args[0])
		flag.Usage()
		osExit(0)
	}
	if Version == DEVELOPMENT {
		if bi, ok := debug.ReadBuildInfo(); ok {
			Version = bi.Main.Version
		}
	}
	if *version {
		fmt.Printf("%s %s\n", Name, Version)
		osExit(0)
	}

	// cpu profile code straight from https://pkg.go.dev/runtime/pprof
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	if err := readConfig(configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read configuration: %v\n", err)
		osExit(2)
	}
	if *backendFlag != "" {
		viper.Set("backend", *backendFlag)
	}
	if *playURI != "" {
		// -play implies the embedded player
		viper.Set("backend", "mpv")
	}

	logger := logger.Init()
	initCommandHandler(logger)

	if testMode {
		fmt.Println("Running in test mode for testing.")
		osExit(0x23420001)
		return
	}

	ui := InitGui(viper.GetBool("ui.artwork"), logger)

	model, controls, err := createBackend(ui, logger, *playURI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to set up the %s backend: %s\n", viper.GetString("backend"), err)
		osExit(1)
	}
	ui.SetPlayer(model, controls)

	if headlessMode {
		fmt.Println("Running in headless mode for testing.")
		osExit(0)
		return
	}

	// gui main loop
	if err := ui.Run(); err != nil {
		panic(err)
	}
}
