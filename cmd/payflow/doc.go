// Command payflow is the operator CLI for the expenditure approval daemon.
// It talks to payflowd over its HTTP API and renders results as tables,
// prose, or JSON.
package main
