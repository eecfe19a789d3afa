// Package config manages the lanprobe preferences file.
//
// The file is YAML and stores defaults for the discovery client and the
// responder so that flags do not have to be repeated. Flags always win over
// file values. Discovered devices are never written here.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/lanprobe/config.yaml or $HOME/.config/lanprobe/config.yaml
//   - macOS: $HOME/.config/lanprobe/config.yaml
//   - Windows: %LOCALAPPDATA%\lanprobe\config.yaml
//
// LANPROBE_CONFIG overrides the location entirely.
//
// # Example
//
//	version: 1
//	discovery:
//	    port: 9999
//	    timeout_seconds: 10
//	    send_mode: interfaces
//	    buffer_size: 1024
//	responder:
//	    port: 9999
//	    advertise: true
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Discovery.Port, cfg.Discovery.Timeout())
//
// Save writes to a temporary file and renames it into place.
package config
