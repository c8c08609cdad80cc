package catalog

// Default returns the built-in catalog shipped with the store. Kept in
// source until the catalog moves behind a backend.
func Default() (*Catalog, error) {
	return New([]App{
		{
			ID:               "defolio-multisend",
			Name:             "Multisend: Send Tokens & NFTs",
			LaunchURL:        "https://multisend-alpha.vercel.app/",
			Developer:        "Deliquified Labs",
			PublisherProfile: "0x746a88d4bc09562e3f01bf4bd0ec91233f67e0d5",
			Categories:       []string{"DeFi", "Infrastructure"},
			SourceCode:       "https://github.com/deliquified/multisend",
			DefaultGridSize:  GridSize{Width: 1, Height: 2},
			Featured:         true,
		},
		{
			ID:               "stakingverse-staking",
			Name:             "Stakingverse: Stake Your LYX",
			LaunchURL:        "https://app.stakingverse.io/staking-widget",
			Developer:        "Stakingverse",
			PublisherProfile: "0x900Be67854A47282211844BbdF5Cc0f332620513",
			Categories:       []string{"DeFi", "Staking"},
			DefaultGridSize:  GridSize{Width: 1, Height: 1},
			Featured:         true,
		},
		{
			ID:               "deliquified-roasted",
			Name:             "Roasted: Roast Profiles",
			LaunchURL:        "https://roasted-green.vercel.app/",
			Developer:        "Deliquified Labs",
			PublisherProfile: "0x746a88d4bc09562e3f01bf4bd0ec91233f67e0d5",
			Categories:       []string{"Social"},
			DefaultGridSize:  GridSize{Width: 1, Height: 1},
			Featured:         true,
		},
		{
			ID:               "aratta-labs-draco",
			Name:             "Dracos: Swipe & Mint",
			LaunchURL:        "https://thunder-dracos.vercel.app",
			Developer:        "Aratta Labs",
			PublisherProfile: "0x8A985fe01eA908F5697975332260553c454f8F77",
			Categories:       []string{"NFTs"},
			DefaultGridSize:  GridSize{Width: 1, Height: 2},
			Featured:         true,
		},
		{
			ID:               "aratta-labs-pigmint",
			Name:             "Pigmint: Mood Tracker",
			LaunchURL:        "https://pigmint.vercel.app",
			Developer:        "Aratta Labs",
			PublisherProfile: "0x8A985fe01eA908F5697975332260553c454f8F77",
			Categories:       []string{"NFTs", "Social"},
			DefaultGridSize:  GridSize{Width: 1, Height: 2},
		},
		{
			ID:               "stakingverse-holders",
			Name:             "Stakingverse: Holders",
			LaunchURL:        "https://app.stakingverse.io/holders-widget",
			Developer:        "Stakingverse",
			PublisherProfile: "0x900Be67854A47282211844BbdF5Cc0f332620513",
			Categories:       []string{"DeFi", "Staking"},
			DefaultGridSize:  GridSize{Width: 1, Height: 1},
		},
		{
			ID:               "deliquified-notes",
			Name:             "Notes: Quick Notes On Your Grid",
			LaunchURL:        "https://deliquified-notes.vercel.app/",
			Developer:        "Deliquified Labs",
			PublisherProfile: "0x746a88d4bc09562e3f01bf4bd0ec91233f67e0d5",
			Categories:       []string{"Productivity"},
			DefaultGridSize:  GridSize{Width: 1, Height: 1},
		},
	})
}
