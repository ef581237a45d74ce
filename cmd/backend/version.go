package main

// version is stamped at build time via -ldflags "-X main.version=..."
var version = "dev"
