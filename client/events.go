/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package client

type createRoom struct {
	displayName string
}

type joinRoom struct {
	displayName string
	roomCode    string
}

type startGame struct{}

type leaveRoom struct{}

type dismiss struct{}
