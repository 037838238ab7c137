// Package repl provides the interactive mode of memkv-cli.
//
// Lines are split into arguments the way redis-cli does: whitespace
// separates, double quotes allow escapes such as \n and \xHH, single
// quotes only \'. Built-ins (help, history, exit) are handled locally;
// everything else goes to the server.
package repl
