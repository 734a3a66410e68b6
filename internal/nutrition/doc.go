// Package nutrition holds the user profile and the pure target arithmetic:
// Mifflin-St Jeor BMR, activity and goal adjustments, macro splits, progress
// percentages and BMI. Nothing in this package does I/O.
package nutrition
