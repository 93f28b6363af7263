package router

import (
	backupsvc "rsutrack-backend/internal/application/backup"
	grantsvc "rsutrack-backend/internal/application/grants"
	insightsvc "rsutrack-backend/internal/application/insights"
	resvc "rsutrack-backend/internal/application/releaseevents"
	sellsvc "rsutrack-backend/internal/application/sells"
	settingsvc "rsutrack-backend/internal/application/settings"
	vestsvc "rsutrack-backend/internal/application/vesting"
	"rsutrack-backend/internal/config"
	backuphandler "rsutrack-backend/internal/interfaces/handlers/backup"
	grantshandler "rsutrack-backend/internal/interfaces/handlers/grants"
	healthhandler "rsutrack-backend/internal/interfaces/handlers/health"
	insightshandler "rsutrack-backend/internal/interfaces/handlers/insights"
	rehandler "rsutrack-backend/internal/interfaces/handlers/releaseevents"
	sellshandler "rsutrack-backend/internal/interfaces/handlers/sells"
	settingshandler "rsutrack-backend/internal/interfaces/handlers/settings"
	vestinghandler "rsutrack-backend/internal/interfaces/handlers/vesting"
	"rsutrack-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp wires middleware, services and routes onto a Fiber app. The
// schema mode decides whether the simple release-event surface or the
// detailed vest pipeline is mounted; everything else is shared.
func CreateApp(cfg *config.Config, db *gorm.DB) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{DB: &gormDBPinger{db: db}, Mode: cfg.SchemaMode}
	app.Get("/api/health", hh.Check)

	// Grants
	gs := &grantsvc.Service{DB: db}
	gh := &grantshandler.Handlers{Service: gs}
	gg := app.Group("/api/grants")
	gg.Get("/", gh.List)
	gg.Post("/", gh.Create)
	gg.Get("/:id", gh.Get)
	gg.Put("/:id", gh.Update)
	gg.Delete("/:id", gh.Delete)

	// Sells
	ss := &sellsvc.Service{DB: db}
	sh := &sellshandler.Handlers{Service: ss}
	sg := app.Group("/api/sells")
	sg.Get("/", sh.List)
	sg.Post("/", sh.Create)
	sg.Put("/:id", sh.Update)
	sg.Delete("/:id", sh.Delete)

	// Settings
	sts := &settingsvc.Service{DB: db}
	sth := &settingshandler.Handlers{Service: sts}
	app.Get("/api/settings", sth.All)
	app.Put("/api/settings", sth.Upsert)

	// Insights
	ins := &insightsvc.Service{DB: db, Mode: cfg.SchemaMode}
	inh := &insightshandler.Handlers{Service: ins}
	ig := app.Group("/api/insights")
	ig.Get("/portfolio", inh.Portfolio)
	ig.Get("/lots", inh.Lots)
	ig.Get("/capital-gains", inh.CapitalGains)
	ig.Get("/tax-withholding", inh.TaxWithholding)
	ig.Get("/sell-to-cover-gains", inh.SellToCoverGains)
	ig.Get("/promised-vs-factual", inh.PromisedVsFactual)

	// Data export/import
	bs := &backupsvc.Service{DB: db, Mode: cfg.SchemaMode}
	bh := &backuphandler.Handlers{Service: bs}
	app.Get("/api/data/export", bh.Export)
	app.Post("/api/data/import", bh.Import)

	if cfg.SchemaMode == config.SchemaDetailed {
		vs := &vestsvc.Service{DB: db}
		vh := &vestinghandler.Handlers{Service: vs}

		vg := app.Group("/api/vests")
		vg.Get("/", vh.ListVests)
		vg.Post("/", vh.CreateVest)
		vg.Get("/:id", vh.GetVest)
		vg.Put("/:id", vh.UpdateVest)
		vg.Delete("/:id", vh.DeleteVest)

		sftg := app.Group("/api/sell-for-tax")
		sftg.Get("/", vh.ListSellForTax)
		sftg.Post("/", vh.CreateSellForTax)
		sftg.Put("/:id", vh.UpdateSellForTax)
		sftg.Delete("/:id", vh.DeleteSellForTax)

		tcrg := app.Group("/api/tax-cash-returns")
		tcrg.Get("/", vh.ListTaxCashReturns)
		tcrg.Post("/", vh.CreateTaxCashReturn)
		tcrg.Put("/:id", vh.UpdateTaxCashReturn)
		tcrg.Delete("/:id", vh.DeleteTaxCashReturn)

		rg := app.Group("/api/releases")
		rg.Get("/", vh.ListReleases)
		rg.Post("/", vh.CreateRelease)
		rg.Put("/:id", vh.UpdateRelease)
		rg.Delete("/:id", vh.DeleteRelease)
	} else {
		res := &resvc.Service{DB: db}
		reh := &rehandler.Handlers{Service: res}

		reg := app.Group("/api/release-events")
		reg.Get("/", reh.List)
		reg.Get("/suggest-allocations", reh.SuggestAllocations)
		reg.Post("/", reh.Create)
		reg.Get("/:id", reh.Get)
		reg.Put("/:id", reh.Update)
		reg.Delete("/:id", reh.Delete)
	}

	return app
}
