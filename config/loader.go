package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

var sitesPath = "config/sites.json"

// LoadSitesOverride replaces the built-in site registry with the contents of
// config/sites.json when the file exists. A missing file is not an error;
// the defaults stay in place.
func LoadSitesOverride() error {
	absPath, err := filepath.Abs(sitesPath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %v", err)
	}

	data, err := os.ReadFile(absPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read sites file: %v", err)
	}

	var sites []Site
	if err := json.Unmarshal(data, &sites); err != nil {
		return fmt.Errorf("failed to parse sites file: %v", err)
	}
	if len(sites) == 0 {
		return fmt.Errorf("sites file contains no sites")
	}
	for _, site := range sites {
		if site.ID == "" || site.SearchURL == "" {
			return fmt.Errorf("site entry missing id or search_url")
		}
	}

	sitesLock.Lock()
	supportedSites = sites
	sitesLock.Unlock()
	return nil
}
