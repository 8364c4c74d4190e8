// Package core defines the shared language of dbbridge.
//
// This package contains:
//   - Descriptors identifying logical databases inside a driver
//   - Result shapes returned by drivers (TableStructure, TableDataPage, TableInfo, ExecuteResult)
//   - Driver configuration types (DriverConfig, DatabaseConfig)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
