/*
Package session hosts several playback sessions in one process.

A Manager keys running players by the producer session id, so that long-lived
front ends (the HTTP control API, the MCP server) can list them and route control
commands. Sessions that stop on their own are forgotten automatically.
*/
package session
