// Package pkgconfig reads application settings.
//
// Code depends on the Config interface; Viper backs it in production with a
// YAML file whose keys can each be overridden from the environment.
package pkgconfig
