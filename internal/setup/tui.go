package setup

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/gridmarket/config"
)

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

// RunTUI launches the terminal configuration wizard and writes config.gen.yaml.
func RunTUI() error {
	var (
		rpcURL         string
		marketplace    string
		etknAddr       string
		cctAddr        string
		saleAsset      string
		balancePollStr string
		listingPollStr string
		listenAddr     string
		journalDir     string
		confirm        bool
	)

	// defaults
	rpcURL = "http://127.0.0.1:8545"
	balancePollStr = "10s"
	listingPollStr = "15s"
	listenAddr = ":8080"
	journalDir = "./wal/activity"

	// step 1: ledger
	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("GRIDMARKET CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Point the client at your ledger and marketplace.\n"))

	fmt.Println(stepStyle.Render("STEP 1: LEDGER"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("JSON-RPC Endpoint").
				Description("Ledger node URL (e.g. http://127.0.0.1:8545)").
				Value(&rpcURL).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("endpoint cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Marketplace Contract").
				Description("0x-prefixed address").
				Value(&marketplace).
				Validate(validateAddress),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 2: token contracts
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("GRIDMARKET CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: TOKENS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Energy Token (ETKN)").
				Description("0x-prefixed address").
				Value(&etknAddr).
				Validate(validateAddress),
			huh.NewInput().
				Title("Carbon Credit Token (CCT)").
				Description("0x-prefixed address, leave empty to skip").
				Value(&cctAddr).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					return validateAddress(s)
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 3: sale asset
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("GRIDMARKET CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: SALE ASSET"))
	assetOptions := []huh.Option[string]{huh.NewOption("ETKN (energy token)", "ETKN")}
	if cctAddr != "" {
		assetOptions = append(assetOptions, huh.NewOption("CCT (carbon credit token)", "CCT"))
	}
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which token do you sell on the marketplace?").
				Options(assetOptions...).
				Value(&saleAsset),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 4: timing
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("GRIDMARKET CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: TIMING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Balance Refresh Interval").
				Description("Duration string (e.g. 10s, 30s, 1m)").
				Value(&balancePollStr).
				Validate(validateDuration),
			huh.NewInput().
				Title("Listing Refresh Interval").
				Description("Duration string (e.g. 15s, 30s, 1m)").
				Value(&listingPollStr).
				Validate(validateDuration),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 5: local surfaces
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("GRIDMARKET CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 5: DASHBOARD & JOURNAL"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Dashboard Listen Address").
				Value(&listenAddr),
			huh.NewInput().
				Title("Activity Journal Directory").
				Value(&journalDir),
		),
	).Run()
	if err != nil {
		return err
	}

	// confirmation
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("GRIDMARKET CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Ledger: %s\nMarketplace: %s\nSale asset: %s\nBalance poll: %s\nListing poll: %s\nDashboard: %s\n",
		rpcURL, marketplace, saleAsset, balancePollStr, listingPollStr, listenAddr,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save it").
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

	balancePoll, _ := time.ParseDuration(balancePollStr)
	listingPoll, _ := time.ParseDuration(listingPollStr)

	cfg := config.Config{
		RPCURL:      rpcURL,
		Marketplace: marketplace,
		Assets: []config.AssetConfig{
			{Symbol: "ETKN", Address: etknAddr, Decimals: 18},
		},
		SaleAsset:           saleAsset,
		BalancePollInterval: balancePoll,
		ListingPollInterval: listingPoll,
		ListenAddr:          listenAddr,
		JournalDir:          journalDir,
	}
	if cctAddr != "" {
		cfg.Assets = append(cfg.Assets, config.AssetConfig{Symbol: "CCT", Address: cctAddr, Decimals: 18})
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf(
		"\n✓ Configuration saved to %s\nSet %s and start the client with --config %s", filename, config.PrivateKeyEnv, filename)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return nil
}

func validateAddress(s string) error {
	if !strings.HasPrefix(s, "0x") || len(s) != 42 {
		return fmt.Errorf("must be a 0x-prefixed 20-byte hex address")
	}
	for _, r := range s[2:] {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
			return fmt.Errorf("must be a 0x-prefixed 20-byte hex address")
		}
	}
	return nil
}

func validateDuration(s string) error {
	_, err := time.ParseDuration(s)
	return err
}
