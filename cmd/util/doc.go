// Package util contains helpers shared by the commands: flag setup, the layered
// client configuration (flags, DDICT_ environment variables, .env files and an
// optional YAML file) and factories for serializers, transports and policies.
package util
