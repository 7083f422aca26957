package main

import (
	"fmt"
	"runtime/debug"
	"sort"

	"github.com/alecthomas/kong"

	"github.com/restconv/restconv"
	"github.com/restconv/restconv/extract"
)

type CLI struct {
	Version VersionCmd `cmd:"" help:"Print version information."`
	Routes  RoutesCmd  `cmd:"" help:"Print the compiled route table for a package."`
	Check   CheckCmd   `cmd:"" help:"Validate service annotations without printing routes."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info, ok := debug.ReadBuildInfo()
	if ok && info.Main.Version != "" {
		fmt.Println(info.Main.Version)
		return nil
	}
	fmt.Println("(devel)")
	return nil
}

type RoutesCmd struct {
	Config   string   `help:"Configuration file." default:"restconv.yaml" short:"c"`
	Package  string   `arg:"" optional:"" help:"Package pattern (overrides config)."`
	Services []string `help:"Service type names (overrides config)." short:"s"`
}

func (c *RoutesCmd) Run() error {
	table, err := buildTable(c.Config, c.Package, c.Services)
	if err != nil {
		return err
	}

	verbs := table.Verbs()
	sort.Strings(verbs)
	for _, verb := range verbs {
		for _, e := range table.Entries(verb) {
			fmt.Printf("%-7s /%-40s %s.%s\n", verb, e.Pattern, e.Service().Name(), e.Method().Name())
		}
	}
	return nil
}

type CheckCmd struct {
	Config   string   `help:"Configuration file." default:"restconv.yaml" short:"c"`
	Package  string   `arg:"" optional:"" help:"Package pattern (overrides config)."`
	Services []string `help:"Service type names (overrides config)." short:"s"`
}

func (c *CheckCmd) Run() error {
	table, err := buildTable(c.Config, c.Package, c.Services)
	if err != nil {
		return err
	}
	fmt.Printf("ok: %d routes\n", table.Len())
	return nil
}

// buildTable extracts the configured services and compiles their routes
// with stub handlers.
func buildTable(configPath, pkg string, services []string) (*restconv.RouteTable, error) {
	fileCfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if pkg == "" {
		pkg = fileCfg.Package
	}
	if len(services) == 0 {
		services = fileCfg.Services
	}
	if pkg == "" || len(services) == 0 {
		return nil, fmt.Errorf("a package pattern and at least one service type are required (flag or %s)", configPath)
	}

	infos, err := extract.Extract(pkg, services, extract.Options{})
	if err != nil {
		return nil, err
	}

	app := restconv.NewApp(fileCfg.engineConfig())
	for _, info := range infos {
		app.AddService(info.Descriptor(nil))
	}
	if err := app.Compile(); err != nil {
		return nil, err
	}
	return app.Routes(), nil
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("restconv"),
		kong.Description("Inspect convention-derived route tables."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
