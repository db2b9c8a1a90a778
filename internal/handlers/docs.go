package handlers

import (
	"encoding/json"
	"net/http"
)

func jsonContent(schema interface{}) map[string]interface{} {
	return map[string]interface{}{
		"application/json": map[string]interface{}{"schema": schema},
	}
}

func ref(name string) map[string]string {
	return map[string]string{"$ref": "#/components/schemas/" + name}
}

func errorResponse(description string) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content":     jsonContent(ref("ErrorResponse")),
	}
}

var datasetIDParameter = map[string]interface{}{
	"name":        "id",
	"in":          "path",
	"description": "Dataset ID (UUID v4)",
	"required":    true,
	"schema":      map[string]string{"type": "string", "format": "uuid"},
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the Climate Dashboard API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	nullableNumber := map[string]interface{}{"type": "number", "nullable": true}
	nullableInteger := map[string]interface{}{"type": "integer", "nullable": true}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Climate Dashboard API",
			"description": "Upload daily weather observations and get heatwave, rainfall and temperature distribution tables for a dashboard",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/datasets": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Upload a dataset",
					"description": "CSV with columns time, prcp, tmax, tavg. The file may be gzip, lz4 or zip compressed.",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"multipart/form-data": map[string]interface{}{
								"schema": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"file": map[string]string{"type": "string", "format": "binary"},
									},
									"required": []string{"file"},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"201": map[string]interface{}{
							"description": "Dataset stored",
							"content":     jsonContent(ref("DatasetSummary")),
						},
						"400": errorResponse("Missing file or required columns"),
						"413": errorResponse("Upload too large"),
					},
				},
				"get": map[string]interface{}{
					"summary": "List datasets",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Live datasets, most recent first",
							"content": jsonContent(map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"data":  map[string]interface{}{"type": "array", "items": ref("DatasetSummary")},
									"total": map[string]string{"type": "integer"},
								},
							}),
						},
					},
				},
			},
			"/api/datasets/{id}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Get a dataset summary",
					"parameters": []interface{}{datasetIDParameter},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Dataset summary with slider defaults",
							"content":     jsonContent(ref("DatasetSummary")),
						},
						"400": errorResponse("Invalid dataset ID"),
						"404": errorResponse("Unknown or expired dataset"),
					},
				},
				"delete": map[string]interface{}{
					"summary":    "Delete a dataset",
					"parameters": []interface{}{datasetIDParameter},
					"responses": map[string]interface{}{
						"204": map[string]string{"description": "Deleted"},
						"404": errorResponse("Unknown or expired dataset"),
					},
				},
			},
			"/api/datasets/{id}/dashboard": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Compute dashboard tables",
					"description": "Filters by inclusive year range and counts heatwave days strictly above the threshold. min_year greater than max_year yields empty tables.",
					"parameters": []interface{}{
						datasetIDParameter,
						map[string]interface{}{
							"name":        "min_year",
							"in":          "query",
							"description": "First year (default: earliest year in the dataset)",
							"schema":      map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 9999},
						},
						map[string]interface{}{
							"name":        "max_year",
							"in":          "query",
							"description": "Last year (default: latest year in the dataset)",
							"schema":      map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 9999},
						},
						map[string]interface{}{
							"name":        "threshold",
							"in":          "query",
							"description": "Heatwave threshold in °C (default: 35)",
							"schema":      map[string]interface{}{"type": "number", "minimum": -100, "maximum": 100},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Chart-ready tables",
							"content":     jsonContent(ref("DashboardResponse")),
						},
						"400": errorResponse("Invalid parameters"),
						"404": errorResponse("Unknown or expired dataset"),
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Health check",
					"responses": map[string]interface{}{
						"200": map[string]string{"description": "API is healthy"},
						"503": errorResponse("Dataset store unavailable"),
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Prometheus metrics",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"ErrorResponse": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"error":   map[string]string{"type": "string"},
						"message": map[string]string{"type": "string"},
						"code":    map[string]string{"type": "integer"},
					},
				},
				"DatasetSummary": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"id":                      map[string]string{"type": "string", "format": "uuid"},
						"name":                    map[string]string{"type": "string"},
						"row_count":               map[string]string{"type": "integer"},
						"min_year":                nullableInteger,
						"max_year":                nullableInteger,
						"missing_timestamp":       map[string]string{"type": "integer"},
						"missing_precipitation":   map[string]string{"type": "integer"},
						"missing_max_temperature": map[string]string{"type": "integer"},
						"missing_avg_temperature": map[string]string{"type": "integer"},
						"loaded_at":               map[string]string{"type": "string", "format": "date-time"},
						"expires_at":              map[string]string{"type": "string", "format": "date-time"},
						"threshold_default":       map[string]string{"type": "number"},
						"threshold_min":           map[string]string{"type": "number"},
						"threshold_max":           map[string]string{"type": "number"},
					},
				},
				"DashboardResponse": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"dataset_id": map[string]string{"type": "string", "format": "uuid"},
						"year_range": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"min_year": map[string]string{"type": "integer"},
								"max_year": map[string]string{"type": "integer"},
							},
						},
						"threshold":     map[string]string{"type": "number"},
						"filtered_rows": map[string]string{"type": "integer"},
						"heatwave_trend": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"year":            map[string]string{"type": "integer"},
									"heatwave_days":   map[string]string{"type": "integer"},
									"rolling_avg_5yr": nullableNumber,
								},
							},
						},
						"rainfall_trend": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"year":                   map[string]string{"type": "integer"},
									"total_precipitation_mm": map[string]string{"type": "number"},
								},
							},
						},
						"monthly_heatwave": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"month":         map[string]string{"type": "integer"},
									"month_name":    map[string]string{"type": "string"},
									"heatwave_days": map[string]string{"type": "integer"},
								},
							},
						},
						"temperature_categories": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"category": map[string]interface{}{"type": "string", "enum": []string{"Cool", "Warm", "Hot", "Very Hot"}},
									"label":    map[string]string{"type": "string"},
									"count":    map[string]string{"type": "integer"},
									"percent":  map[string]string{"type": "number"},
								},
							},
						},
						"charts": map[string]string{"type": "object"},
						"theme":  map[string]string{"type": "object"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
