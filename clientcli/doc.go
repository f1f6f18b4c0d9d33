// Package clientcli implements the client side of the storyhost operational
// API: publishing ZIP archives, invalidating cached indexes, listing versions
// and deleting archives.
//
// Connection settings come from named profiles in ~/.storyhost/config.yaml,
// overridable through the STORYHOST_ENDPOINT, STORYHOST_TOKEN and
// STORYHOST_PROFILE environment variables.
package clientcli
