package setup

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/vadiminshakov/bazar/config"
	"github.com/vadiminshakov/bazar/pkg/format"
	"gopkg.in/yaml.v3"
)

// DefaultOutput is where the wizard writes the generated config.
const DefaultOutput = "bazar.gen.yaml"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// answers are the raw wizard inputs.
type answers struct {
	computeUnitURL  string
	relayURL        string
	viewerWallet    string
	viewerProfileID string
	listenAddr      string
	tlsDomains      string
	journalDir      string
	refreshInterval string
	readsPerSecond  string
}

func defaultAnswers() answers {
	def := config.Default()
	return answers{
		computeUnitURL:  def.ComputeUnitURL,
		listenAddr:      def.ListenAddr,
		journalDir:      def.JournalDir,
		refreshInterval: def.RefreshInterval.String(),
		readsPerSecond:  strconv.FormatFloat(def.ReadsPerSecond, 'f', -1, 64),
	}
}

func step(title string) {
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("BAZAR CONFIG WIZARD"))
	fmt.Println(stepStyle.Render(title))
}

// RunTUI launches the terminal configuration wizard and writes the config to output.
func RunTUI(output string) error {
	if output == "" {
		output = DefaultOutput
	}
	a := defaultAnswers()
	var confirm bool

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("BAZAR CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Point the marketplace at your network.\n"))

	fmt.Println(stepStyle.Render("STEP 1: NETWORK"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Compute unit URL").
				Description("AO compute unit used for dry-run reads").
				Value(&a.computeUnitURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Relay URL").
				Description("Message relay for orders and profile updates, empty for read-only").
				Value(&a.relayURL),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 2: VIEWER")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Wallet address").
				Description("Leave empty to browse anonymously").
				Value(&a.viewerWallet).
				Validate(optional(format.ValidAddress, "invalid wallet address")),
			huh.NewInput().
				Title("Profile id").
				Value(&a.viewerProfileID).
				Validate(optional(format.ValidTxID, "invalid profile id")),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 3: SERVER")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen address").
				Value(&a.listenAddr),
			huh.NewInput().
				Title("TLS domains").
				Description("Comma separated, empty serves plain HTTP").
				Value(&a.tlsDomains),
			huh.NewInput().
				Title("Journal directory").
				Description("Store update journal for the SSE stream, empty disables it").
				Value(&a.journalDir),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 4: TIMING")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Refresh interval").
				Description("Duration string (e.g. 30s, 1m), 0 disables periodic refresh").
				Value(&a.refreshInterval).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
			huh.NewInput().
				Title("Reads per second").
				Description("Compute unit read limit, 0 disables throttling").
				Value(&a.readsPerSecond).
				Validate(func(s string) error {
					_, err := strconv.ParseFloat(s, 64)
					return err
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	step("FINAL CONFIRMATION")
	summary := fmt.Sprintf(
		"Compute unit: %s\nRelay: %s\nViewer: %s\nListen: %s\nRefresh: %s\n",
		a.computeUnitURL, orNone(a.relayURL), orNone(format.Address(a.viewerWallet, false)), a.listenAddr, a.refreshInterval,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	cfg, err := a.config()
	if err != nil {
		return err
	}
	if err := Write(output, cfg); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", output)))
	return nil
}

func (a answers) config() (config.Config, error) {
	cfg := config.Default()
	cfg.ComputeUnitURL = strings.TrimSpace(a.computeUnitURL)
	cfg.RelayURL = strings.TrimSpace(a.relayURL)
	cfg.ViewerWallet = strings.TrimSpace(a.viewerWallet)
	cfg.ViewerProfileID = strings.TrimSpace(a.viewerProfileID)
	cfg.ListenAddr = strings.TrimSpace(a.listenAddr)
	cfg.JournalDir = strings.TrimSpace(a.journalDir)

	cfg.TLSDomains = nil
	for _, d := range strings.Split(a.tlsDomains, ",") {
		if d = strings.TrimSpace(d); d != "" {
			cfg.TLSDomains = append(cfg.TLSDomains, d)
		}
	}

	refresh, err := time.ParseDuration(a.refreshInterval)
	if err != nil {
		return config.Config{}, fmt.Errorf("invalid refresh interval: %w", err)
	}
	cfg.RefreshInterval = refresh

	rps, err := strconv.ParseFloat(a.readsPerSecond, 64)
	if err != nil {
		return config.Config{}, fmt.Errorf("invalid reads per second: %w", err)
	}
	cfg.ReadsPerSecond = rps

	return cfg, cfg.Validate()
}

// Write stores the config as YAML.
func Write(path string, cfg config.Config) error {
	data, err := yaml.Marshal(cfg.Tmp())
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

func validateURL(s string) error {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return fmt.Errorf("must start with http:// or https://")
	}
	return nil
}

func optional(valid func(string) bool, msg string) func(string) error {
	return func(s string) error {
		if s = strings.TrimSpace(s); s != "" && !valid(s) {
			return fmt.Errorf("%s", msg)
		}
		return nil
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
