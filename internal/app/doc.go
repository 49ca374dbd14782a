// Package app loads the job configuration and wires stores, clients and
// services for the CLI. Config files are INI, one section per collaborator
// plus one section per fetch artifact family, mirroring the layout the
// operations team has used for these jobs for years.
package app
