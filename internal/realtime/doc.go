// Package realtime 處理白板與聊天室的即時廣播。
//
// Registry 記錄每條連線目前加入的房間，Router 把事件分送給同一房間的其他成員。
// 每條連線由一個讀取 goroutine 依序處理收到的事件，並由一個寫入 goroutine
// 消化自己的發送佇列；Router 只碰佇列，不直接接觸 websocket。
package realtime
