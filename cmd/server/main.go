package main

import (
    "errors"
    "flag"
    "fmt"
    "io/fs"
    "net/http"
    "os"
    "strings"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/joho/godotenv"
    "github.com/kiliankoe/undercover/internal/config"
    "github.com/kiliankoe/undercover/internal/game"
    "github.com/kiliankoe/undercover/internal/ws"
    "github.com/rs/zerolog"
    zerologlog "github.com/rs/zerolog/log"
)

var version = "dev" // Set at build time via -ldflags

func main() {
    var (
        showHelp    = flag.Bool("help", false, "Show help message")
        showVersion = flag.Bool("version", false, "Show version information")
        portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
    )
    flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
    flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
    flag.Parse()

    if *showHelp {
        fmt.Printf(`Undercover - Real-time word party game server

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  PORT                      Port to listen on (default: 8080)
  LOG_LEVEL                 zerolog level (default: info)
  WS_PATH                   WebSocket endpoint (default: /ws)
  SOCKETIO_ENABLED          Also serve Socket.IO on /socket.io (default: true)
  ALLOWED_ORIGINS           Comma-separated WebSocket origins (default: any)
  EXPORT_ENABLED            Append finished games to a file (default: false)
  EXPORT_FILE               Path for exported results (default: ./undercover-results.txt)
  DEFAULT_UNDERCOVER_COUNT  Undercovers when a room is created without settings (default: 1)
  DEFAULT_MR_WHITE_COUNT    Mr. Whites when a room is created without settings (default: 0)

A .env file in the working directory is loaded first if present.
`, os.Args[0])
        return
    }

    if *showVersion {
        fmt.Printf("Undercover %s\n", version)
        return
    }

    if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
        fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
        os.Exit(1)
    }
    cfg, err := config.FromEnv()
    if err != nil {
        fmt.Fprintln(os.Stderr, err)
        os.Exit(1)
    }
    if *portFlag != "" {
        cfg.Port = *portFlag
    }

    zerolog.TimeFieldFormat = time.RFC3339
    cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
    zerologlog.Logger = zerologlog.Output(cw)
    level, err := zerolog.ParseLevel(cfg.LogLevel)
    if err != nil {
        level = zerolog.InfoLevel
    }
    zerolog.SetGlobalLevel(level)

    gin.SetMode(gin.ReleaseMode)
    r := gin.New()
    r.Use(gin.Recovery())
    r.Use(func(c *gin.Context) {
        start := time.Now()
        c.Next()
        path := c.Request.URL.Path
        if strings.HasPrefix(path, "/socket.io") || path == cfg.WSPath {
            return
        }
        status := c.Writer.Status()
        dur := time.Since(start)
        zerologlog.Info().Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
    })

    r.GET("/health", func(c *gin.Context) {
        c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
    })

    hub := ws.NewHub()
    opts := []game.Option{
        game.WithDefaultSettings(game.Settings{
            UndercoverCount: cfg.DefaultUndercoverCount,
            MrWhiteCount:    cfg.DefaultMrWhiteCount,
        }),
    }
    if cfg.ExportEnabled {
        opts = append(opts, game.WithExporter(game.FileExporter(cfg.ExportFile)))
    }
    rm := game.NewRoomManager(game.NewStore(), hub, hub, opts...)

    sock := ws.New(rm, hub, cfg)
    sock.MountWebSocket(r, cfg.WSPath)
    if cfg.SocketIO {
        io := sock.MountSocketIO(r)
        defer io.Close()
    }

    r.GET("/api/rooms/:code", func(c *gin.Context) {
        sum, err := rm.Summary(c.Param("code"))
        if err != nil {
            c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
            return
        }
        c.JSON(http.StatusOK, sum)
    })

    zerologlog.Info().Str("port", cfg.Port).Str("ws", cfg.WSPath).Bool("socketio", cfg.SocketIO).Str("version", version).Msg("listening")
    if err := r.Run(":" + cfg.Port); err != nil {
        zerologlog.Fatal().Err(err).Msg("server stopped")
    }
}
