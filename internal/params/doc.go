// Package params parses user-supplied dataset parameters.
//
// Import and checkout commands accept free-form parameters (dataset title,
// description, custom meta items) either as repeated --param key=value flags
// or as a .env-style file via --env-file. Flags take precedence over file
// values; the merged map is stored alongside the dataset's meta items.
//
// The .env parser is compatible with godotenv behavior for simple files but
// does not support variable expansion or multiline values; files needing
// those features should be loaded with godotenv directly.
//
// # Example Usage
//
//	fileParams, err := params.ParseEnvFile(content)
//	flagParams, err := params.ParseKeyValuePairs([]string{"title=Auckland LiDAR"})
//
// # Thread Safety
//
// All functions are safe for concurrent use.
package params
