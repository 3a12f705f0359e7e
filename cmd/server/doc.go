// Cinematch - Movie Catalog, Reviews and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

// Swagger general API info. The docs package is regenerated from these
// annotations and the handler annotations in internal/api.
//
// @title Cinematch API
// @version 1.0
// @description Movie catalog search, user reviews and genre-based recommendations.
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/cinematch/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
//
// @tag.name Catalog
// @tag.description Search, movie detail and genre listing
//
// @tag.name Reviews
// @tag.description Review submission and removal
//
// @tag.name Users
// @tag.description Registration, credential checks, recommendations and review history
//
// @tag.name Admin
// @tag.description Catalog reload
//
// @tag.name Health
// @tag.description Readiness and liveness
package main
