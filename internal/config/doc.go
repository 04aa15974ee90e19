// Package config provides centralized configuration management for the
// radiomics reshaper.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern RADIOMICS_<SECTION>_<FIELD>:
//
//	RADIOMICS_SERVER_PORT=8080
//	RADIOMICS_UPLOAD_MAX_BYTES=104857600
//	RADIOMICS_STORAGE_TTL=1h
//	RADIOMICS_VOCABULARY_TIMEPOINTS=Baseline,Mid-treatment,Post-treatment
//
// RADIOMICS_CONFIG names the YAML file explicitly; otherwise config.yaml and
// configs/config.yaml are searched.
package config
