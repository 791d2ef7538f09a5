package main

import (
	"flag"
	"net/http"
	"os"
	"path/filepath"

	"github.com/CodedInternet/motorlink/comms"
	"github.com/CodedInternet/motorlink/logger"
	. "github.com/CodedInternet/motorlink/onboard"
	"github.com/CodedInternet/motorlink/onboard/broadcast"
	"github.com/asdine/storm/v3"
	"github.com/caarlos0/env/v6"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type EnvConfig struct {
	JWT_ISSUER  string `env:"JWT_ISSUER" envDefault:"DEV"`
	JWT_SECRET  string `env:"JWT_SECRET" envDefault:"xWumOlRfhu+LBi2F2e1yF4FiaopQ5mr8klL4fpILnlI="`
	DEBUG       bool   `env:"DEBUG" envDefault:"0"`
	LOG_LEVEL   string `env:"LOG_LEVEL" envDefault:"info"`
	SRCDIR      string `env:"SRCDIR" envDefault:"."`
	HTMLDIR     string `env:"HTMLDIR" envDefault:"./frontend/dist/"`
	CONFIG_FILE string `env:"CONFIG_FILE" envDefault:"motor_config.yaml"`
	DB_FILE     string `env:"DB_FILE" envDefault:"./tmp/dev.db"`
	DB          *storm.DB
	Hub         *broadcast.Hub
	Device      *Device
	Conductor   *comms.Conductor
	Simulated   bool
}

var (
	ENV *EnvConfig
)

func loadEnv() (*EnvConfig, error) {
	config := new(EnvConfig)
	if err := env.Parse(config); err != nil {
		return nil, err
	}
	return config, nil
}

func main() {
	// process flags
	simulated := flag.Bool("sim", false, "Run against the simulated motor board")
	port := flag.String("port", "0.0.0.0:8080", "Specify the ip:port to listen on")
	serialPort := flag.String("serial", "", "Connect to this serial port on startup")
	headless := flag.Bool("headless", false, "Do not start the interactive shell")
	flag.Parse()

	var err error
	ENV, err = loadEnv()
	if err != nil {
		logger.Error("unable to parse environment: %v", err)
		os.Exit(1)
	}

	level, err := logger.ParseLevel(ENV.LOG_LEVEL)
	if err != nil {
		logger.Warn("%v, using info", err)
		level = logger.InfoLevel
	}
	if ENV.DEBUG {
		level = logger.DebugLevel
	}
	logger.SetLevel(level)

	// setup database
	dbFile, err := filepath.Abs(ENV.DB_FILE)
	if err != nil {
		logger.Error("invalid database path: %v", err)
		os.Exit(1)
	}
	ENV.DB, err = openDb(dbFile)
	if err != nil {
		logger.Error("unable to open database %s: %v", dbFile, err)
		os.Exit(1)
	}
	defer ENV.DB.Close() // close database when finished

	// Setup the device properly so everything works as expected later
	filename := ENV.CONFIG_FILE
	if !filepath.IsAbs(filename) {
		filename = filepath.Join(ENV.SRCDIR, filename)
	}
	config, err := LoadConfig(filename)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	if *serialPort != "" {
		config.Serial.Port = *serialPort
	}

	ENV.Simulated = *simulated
	ENV.Hub = broadcast.NewHub()
	ENV.Device, err = NewDevice(config, ENV.Hub)
	if err != nil {
		logger.Error("unable to initialize device: %v", err)
		os.Exit(1)
	}
	defer ENV.Device.Close()

	if ENV.Simulated {
		logger.Info("Using simulated motor board on %s", SIM_PORT)
		ENV.Device.Opener = OpenSimulatedPort
		ENV.Device.Lister = ListSimulatedPorts
		if config.Serial.Port == "" {
			config.Serial.Port = SIM_PORT
		}
	}

	ENV.Conductor = comms.NewConductor(ENV.Device, ENV.Hub)

	if config.Serial.Port != "" {
		if err := ENV.Device.Connect(config.Serial.Port); err != nil {
			logger.Warn("startup connect: %v", err)
		}
	}

	if !*headless {
		go newShell(ENV.Device, ENV.Hub).Run()
	}

	r := newRouter()

	logger.Info("Listening on %s", *port)
	if err := http.ListenAndServe(*port, r); err != nil {
		logger.Error("%v", err)
	}
}

func newRouter() chi.Router {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Recoverer) // make sure this is last

	//---
	// Build the API routes
	//---
	r.Route("/api", func(r chi.Router) {
		// login
		r.Post("/login", Login)

		r.Group(func(r chi.Router) {
			// Seek, verify and validate JWT tokens
			r.Use(ValidateJWT)

			r.Get("/state", StateHandler)
			r.Get("/refresh_token", JWTRefresh)
		})
	})

	// Add websocket routes
	r.Route("/ws", func(r chi.Router) {
		if !ENV.DEBUG {
			r.Use(ValidateJWT)
		} else {
			logger.Warn("Running in debug mode. Authentication disabled.")
		}

		r.Get("/console", ConsoleHandler)
	})

	serveFrontend(r, http.Dir(ENV.HTMLDIR))

	return r
}

func openDb(dbFile string) (db *storm.DB, err error) {
	dir := filepath.Dir(dbFile)
	if _, err = os.Stat(dir); os.IsNotExist(err) {
		if err = os.MkdirAll(dir, 0755); err != nil {
			return
		}
	}

	db, err = storm.Open(dbFile)
	if err != nil {
		return
	}

	// call inits for each type
	if err := db.Init(&Operator{}); err != nil {
		return nil, err
	}

	return
}

// serveFrontend mounts the console frontend under every path the API and
// websocket routes do not claim.
func serveFrontend(r chi.Router, root http.FileSystem) {
	files := http.FileServer(root)
	r.Get("/*", files.ServeHTTP)
}
